package content

// Project is one entry of the Projects window.
type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Year         int      `json:"year"`
	GitHub       string   `json:"github,omitempty"`
	DemoURL      string   `json:"demo_url,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
}

// Experience is one entry of the Experience window.
type Experience struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Description []string `json:"description"`
}

// ContactInfo fills the Contact window.
type ContactInfo struct {
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// Song is one track of a media player collection.
type Song struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	CoverImageURL string `json:"cover_image_url"`
	AudioFileID   string `json:"audio_file_id,omitempty"`
	SpotifyID     string `json:"spotify_id,omitempty"`
}

// ResumeMetadata describes the stored resume document.
type ResumeMetadata struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	FileID      string `json:"file_id"`
	UploadDate  string `json:"upload_date"`
	ContentType string `json:"content_type"`
}
