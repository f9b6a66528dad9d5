package models

import "time"

// Observation represents a single timestamped position/wind measurement
// reported by a rover. Observations are immutable once created.
type Observation struct {
	ID             int64     `json:"id" db:"id"`
	RoverID        string    `json:"roverId" db:"rover_id"`
	RoverName      string    `json:"roverName" db:"rover_name"`
	SessionID      string    `json:"sessionId" db:"session_id"`
	Seq            int64     `json:"seq" db:"seq"`                       // per-session, strictly increasing, gap-tolerant
	CapturedAt     time.Time `json:"capturedAt" db:"captured_at"`
	Latitude       float64   `json:"latitude" db:"latitude"`             // degrees, WGS84
	Longitude      float64   `json:"longitude" db:"longitude"`           // degrees, WGS84
	WindBearingDeg float64   `json:"windBearingDeg" db:"wind_bearing"`   // meteorological "from" convention
	WindSpeedMS    float64   `json:"windSpeedMs" db:"wind_speed"`        // m/s, >= 0
}

// TrailPoint is one element of a rover's ordered trail output.
type TrailPoint struct {
	Seq        int64     `json:"seq"`
	CapturedAt time.Time `json:"capturedAt"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
}

// ObservationFilter narrows observation queries.
type ObservationFilter struct {
	SessionID string `form:"sessionId"`
	RoverID   string `form:"roverId"`
	AfterSeq  int64  `form:"afterSeq"`
	Limit     int    `form:"limit"`
}
