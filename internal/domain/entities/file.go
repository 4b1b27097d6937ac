package entities

import (
	"time"
)

// Mime is the structured content type of an upload. It is fixed at creation
// time and never changes afterwards.
type Mime struct {
	Type    string
	Subtype string
}

func (m Mime) String() string {
	return m.Type + "/" + m.Subtype
}

// FileRecord is one catalog entry. Size stays 0 from creation until the
// coordinator reports the final byte count after the blob has been synced;
// a record with Size == 0 may therefore describe an upload that is still
// in flight or one whose final size update was lost.
type FileRecord struct {
	ID        string
	Name      string
	Mime      Mime
	Size      int64
	CreatedAt time.Time
}
