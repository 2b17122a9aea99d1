package deleter

import "fmt"

// Mode chooses whether client data is exported before deletion.
type Mode string

const (
	SaveAndDelete Mode = "save-and-delete"
	DeleteOnly    Mode = "delete-only"
)

// ParseMode accepts "save-and-delete" or "delete-only".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case SaveAndDelete, DeleteOnly:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q: must be save-and-delete or delete-only", s)
}

// Phase is the state of a deletion attempt. The concrete types are Confirm,
// Downloading, Deleting and Complete.
type Phase interface {
	Name() string
	Message() string
	phase()
}

// Confirm waits for the operator. LastError holds the reason the previous
// run failed, if any.
type Confirm struct {
	LastError string
}

// Downloading is exporting client data.
type Downloading struct {
	Progress string
}

// Deleting is deprovisioning or purging.
type Deleting struct {
	Progress string
}

// Complete is terminal.
type Complete struct {
	Summary string
}

func (Confirm) Name() string     { return "confirm" }
func (Downloading) Name() string { return "downloading" }
func (Deleting) Name() string    { return "deleting" }
func (Complete) Name() string    { return "complete" }

func (p Confirm) Message() string     { return p.LastError }
func (p Downloading) Message() string { return p.Progress }
func (p Deleting) Message() string    { return p.Progress }
func (p Complete) Message() string    { return p.Summary }

func (Confirm) phase()     {}
func (Downloading) phase() {}
func (Deleting) phase()    {}
func (Complete) phase()    {}

const (
	msgDownloading = "Downloading client data..."
	msgDeprovision = "Deleting pixel from SimpleAudience..."
	msgPurge       = "Deleting client data from database..."
	msgComplete    = "Deletion completed successfully!"
)
