package aquarium

// DiagnosticsPayload is the JSON body served by the diagnostics endpoint.
// It is cosmetic operational data, not part of the streaming contract.
type DiagnosticsPayload struct {
	Status      string            `json:"status"`
	ServerTime  int64             `json:"serverTime"`
	TickRate    int               `json:"tickRate"`
	Subscribers int               `json:"subscribers"`
	FishCount   int               `json:"fishCount"`
	Telemetry   telemetrySnapshot `json:"telemetry"`
}
