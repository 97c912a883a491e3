package logging

type BaseEvent struct {
	TSUTC         string `json:"ts_utc"`
	TSUnixMS      int64  `json:"ts_unix_ms"`
	Seq           uint64 `json:"seq"`
	Type          string `json:"type"`
	Target        string `json:"target"`
	SchemaVersion int    `json:"schema_version"`
	ToolName      string `json:"tool_name"`
	ToolVersion   string `json:"tool_version"`
	HostID        string `json:"host_id"`
	ClockSource   string `json:"clock_source"`
}

func (b *BaseEvent) Base() *BaseEvent {
	return b
}

type ProbeResult struct {
	BaseEvent
	Outcome     string  `json:"outcome"`
	ElapsedMs   float64 `json:"elapsed_ms"`
	TimeoutMs   int64   `json:"timeout_ms"`
	RemoteAddr  string  `json:"remote_addr,omitempty"`
	FailureKind string  `json:"failure_kind,omitempty"`
	Detail      string  `json:"failure_detail,omitempty"`
	Errno       *int    `json:"errno"`
	Hint        string  `json:"hint,omitempty"`
	Via         string  `json:"via"`
}

type EchoResult struct {
	BaseEvent
	OK    bool     `json:"ok"`
	RttMs *float64 `json:"rtt_ms"`
	Err   string   `json:"err,omitempty"`
}

type TracerouteResult struct {
	BaseEvent
	Hops      []TracerouteHop `json:"hops"`
	LastHopIP string          `json:"last_hop_ip"`
	Reached   bool            `json:"reached"`
	Err       string          `json:"err,omitempty"`
}

type TracerouteHop struct {
	TTL   int      `json:"ttl"`
	IP    string   `json:"ip"`
	RttMs *float64 `json:"rtt_ms"`
}
