package gallery

import "github.com/julianstephens/unfilled/internal/models"

// DefaultPosts is the sample exhibition shown while the gallery is empty.
func DefaultPosts() []models.DefaultPost {
	return []models.DefaultPost{
		{ID: "default-1", ImageURL: "/mock/1.jpg", Caption: "Morning light through the window", Width: 1200, Height: 1600},
		{ID: "default-2", ImageURL: "/mock/2.jpg", Caption: "Stillness", Width: 1600, Height: 1200},
		{ID: "default-3", ImageURL: "/mock/3.jpg", Caption: "Quiet corners", Width: 1200, Height: 1600},
		{ID: "default-4", ImageURL: "/mock/4.jpg", Caption: "Afternoon shadows", Width: 1600, Height: 1200},
		{ID: "default-5", ImageURL: "/mock/6.jpg", Caption: "Empty spaces", Width: 1200, Height: 1600},
		{ID: "default-6", ImageURL: "/mock/12.jpg", Caption: "Light and time", Width: 1600, Height: 1200},
		{ID: "default-7", ImageURL: "/mock/1.jpg", Caption: "Reflected moments", Width: 1200, Height: 1200},
		{ID: "default-8", ImageURL: "/mock/2.jpg", Caption: "Between here and there", Width: 1600, Height: 1200},
		{ID: "default-9", ImageURL: "/mock/3.jpg", Caption: "Waiting", Width: 1200, Height: 1600},
		{ID: "default-10", ImageURL: "/mock/4.jpg", Caption: "Evening arrives", Width: 1600, Height: 1200},
		{ID: "default-11", ImageURL: "/mock/6.jpg", Caption: "In between", Width: 1200, Height: 1600},
		{ID: "default-12", ImageURL: "/mock/12.jpg", Caption: "Last light", Width: 1600, Height: 1200},
	}
}
