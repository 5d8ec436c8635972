package model

// Label is a named, colored tag attachable to sessions. LocalID is the
// cross-device dedup key sent to the remote store; it is distinct from any
// server-generated row id.
type Label struct {
	ID        string `json:"id"`
	LocalID   string `json:"local_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Favorite  bool   `json:"favorite"`
	CreatedTs int64  `json:"created_ts"` // ms since epoch
}
