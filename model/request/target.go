package request

import "fmt"

// Target identifies the content to retract.
type Target struct {
	Location string `json:"location" yaml:"location"`             // channel id, storage folder URL, etc.
	Version  string `json:"version" yaml:"version"`               // message timestamp or object name
	AuthorID string `json:"authorId" yaml:"authorId"`             // who authored the content
	Name     string `json:"name,omitempty" yaml:"name,omitempty"` // human friendly location name
}

// Key returns a stable identity of the target content.
func (t Target) Key() string {
	return t.Location + "|" + t.Version
}

// Validate checks the fields required to address the content.
func (t Target) Validate() error {
	if t.Location == "" {
		return fmt.Errorf("target location was empty")
	}
	if t.Version == "" {
		return fmt.Errorf("target version was empty")
	}
	if t.AuthorID == "" {
		return fmt.Errorf("target author was empty")
	}
	return nil
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.Location, t.Version)
}
