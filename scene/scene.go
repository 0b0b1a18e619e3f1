// Package scene holds the metadata snapshot describing one playable media item.
//
// JSON tags follow the Stash GraphQL field names so a query response and a scene
// file decode into the same value.
package scene

import "github.com/samber/lo"

// File is one candidate media file of a scene.
type File struct {
	Path     string  `json:"path,omitempty"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Landscape reports whether the file is wider than it is tall.
func (f *File) Landscape() bool {
	return f.Width > 0 && f.Height > 0 && f.Width > f.Height
}

// Portrait reports whether the file is taller than it is wide.
func (f *File) Portrait() bool {
	return f.Width > 0 && f.Height > 0 && f.Height > f.Width
}

// Stream is a playable endpoint for a scene, direct or transcoded.
type Stream struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Caption identifies a caption track by language and subtype (srt, vtt).
type Caption struct {
	LanguageCode string `json:"language_code"`
	CaptionType  string `json:"caption_type"`
}

type Tag struct {
	Name string `json:"name"`
}

// Marker is a titled point in the scene timeline.
type Marker struct {
	Title      string  `json:"title"`
	Seconds    float64 `json:"seconds"`
	PrimaryTag Tag     `json:"primary_tag"`
	Tags       []Tag   `json:"tags"`
}

// Paths groups the server-side resources attached to a scene.
type Paths struct {
	Screenshot string `json:"screenshot,omitempty"`
	Caption    string `json:"caption,omitempty"`
	VTT        string `json:"vtt,omitempty"`
	Funscript  string `json:"funscript,omitempty"`
}

// Scene is immutable once handed to the controller. A new value with the same ID
// is the same scene.
type Scene struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Files       []File    `json:"files"`
	Streams     []Stream  `json:"sceneStreams"`
	Captions    []Caption `json:"captions"`
	Markers     []Marker  `json:"scene_markers"`
	Tags        []Tag     `json:"tags"`
	ResumeTime  float64   `json:"resume_time"`
	Interactive bool      `json:"interactive"`
	Paths       Paths     `json:"paths"`
}

// PrimaryFile returns the first file, or nil when the scene has none.
func (s *Scene) PrimaryFile() *File {
	if s == nil || len(s.Files) == 0 {
		return nil
	}
	return &s.Files[0]
}

// HasTag reports whether the scene carries a tag with exactly this name.
func (s *Scene) HasTag(name string) bool {
	if s == nil {
		return false
	}
	return lo.ContainsBy(s.Tags, func(t Tag) bool {
		return t.Name == name
	})
}

// DisplayTitle falls back to the file path, then the ID.
func (s *Scene) DisplayTitle() string {
	switch {
	case s.Title != "":
		return s.Title
	case len(s.Files) > 0 && s.Files[0].Path != "":
		return s.Files[0].Path
	default:
		return "Scene " + s.ID
	}
}
