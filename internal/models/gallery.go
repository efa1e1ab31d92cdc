package models

import "time"

type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPublic   Visibility = "public"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityUnlisted, VisibilityPublic:
		return true
	}
	return false
}

// Asset is an uploaded image. Exactly one of Data (local backend) or BlobKey
// (hosted backend) locates the bytes.
type Asset struct {
	ID        string    `json:"id"`
	Mime      string    `json:"mime"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int64     `json:"size"`
	Data      []byte    `json:"-"`
	BlobKey   string    `json:"blobKey,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID         string     `json:"id"`
	AssetID    string     `json:"assetId"`
	Caption    string     `json:"caption"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type PostWithAsset struct {
	Post
	Asset Asset `json:"asset"`
}

// GalleryShare is a public link to the gallery.
type GalleryShare struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"` // unlisted or public
	IsDefault   bool       `json:"isDefault"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// DefaultPost is one item of the sample exhibition shown on an empty
// gallery.
type DefaultPost struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Assignment pins an uploaded image to a day of the month.
type Assignment struct {
	Day       int       `json:"day"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updatedAt"`
}
