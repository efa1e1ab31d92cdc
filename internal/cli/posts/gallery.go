package posts

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/gallery"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

type GalleryCmd struct {
	List    GalleryListCmd    `cmd:"" help:"List gallery posts." default:"1"`
	Add     GalleryAddCmd     `cmd:"" help:"Post an image to the gallery."`
	Caption GalleryCaptionCmd `cmd:"" help:"Change a post's caption."`
	Show    GalleryShowCmd    `cmd:"" help:"Change a post's visibility."`
	Delete  GalleryDeleteCmd  `cmd:"" help:"Delete a post and its image."`
	Share   GalleryShareCmd   `cmd:"" help:"Show the share link, or rename its slug."`
}

type GalleryListCmd struct {
	Limit  int `default:"100" help:"Maximum posts to list."`
	Offset int `help:"Posts to skip."`
}

func (c *GalleryListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	repo, err := ctx.Gallery(bg)
	if err != nil {
		return err
	}
	posts, err := repo.ListPosts(bg, c.Limit, c.Offset)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		ctx.Println("The gallery is empty. Visitors see the sample exhibition:")
		for _, d := range gallery.DefaultPosts() {
			ctx.Printf("  %s  %s\n", d.ImageURL, d.Caption)
		}
		return nil
	}
	for _, p := range posts {
		ctx.Printf("%s  %-9s %4dx%-4d %s  %s\n", p.ID, p.Visibility, p.Asset.Width, p.Asset.Height,
			p.CreatedAt.Format("2006-01-02"), p.Caption)
	}
	return nil
}

type GalleryAddCmd struct {
	File       string `arg:"" type:"existingfile" help:"Image to post."`
	Caption    string `help:"Caption."`
	Visibility string `default:"private" enum:"private,unlisted,public" help:"Who can see the post."`
}

func (c *GalleryAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	repo, err := ctx.Gallery(bg)
	if err != nil {
		return err
	}
	post, err := repo.CreatePost(bg, gallery.CreatePostInput{
		Image:      data,
		Caption:    c.Caption,
		Visibility: models.Visibility(c.Visibility),
	})
	if err != nil {
		if errors.Is(err, gallery.ErrInvalidImage) {
			return fmt.Errorf("%s is not a supported image: %w", c.File, err)
		}
		return err
	}
	ctx.Printf("✓ Posted %s (%dx%d, %s)\n", post.ID, post.Asset.Width, post.Asset.Height, post.Visibility)
	return nil
}

type GalleryCaptionCmd struct {
	ID      string `arg:"" help:"Post id."`
	Caption string `arg:"" help:"New caption."`
}

func (c *GalleryCaptionCmd) Run(ctx *cli.Context) error {
	return update(ctx, c.ID, gallery.UpdatePostInput{Caption: &c.Caption})
}

type GalleryShowCmd struct {
	ID         string `arg:"" help:"Post id."`
	Visibility string `arg:"" enum:"private,unlisted,public" help:"New visibility."`
}

func (c *GalleryShowCmd) Run(ctx *cli.Context) error {
	v := models.Visibility(c.Visibility)
	return update(ctx, c.ID, gallery.UpdatePostInput{Visibility: &v})
}

func update(ctx *cli.Context, id string, in gallery.UpdatePostInput) error {
	bg := context.Background()
	repo, err := ctx.Gallery(bg)
	if err != nil {
		return err
	}
	post, err := repo.UpdatePost(bg, id, in)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("post %s not found", id)
	}
	if err != nil {
		return err
	}
	ctx.Printf("✓ Updated %s (%s) %s\n", post.ID, post.Visibility, post.Caption)
	return nil
}

type GalleryDeleteCmd struct {
	ID  string `arg:"" help:"Post id."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *GalleryDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete post %s and its image?", c.ID))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}
	repo, err := ctx.Gallery(bg)
	if err != nil {
		return err
	}
	if err := repo.DeletePost(bg, c.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("post %s not found", c.ID)
		}
		return err
	}
	ctx.Printf("✓ Deleted %s\n", c.ID)
	return nil
}

type GalleryShareCmd struct {
	Slug string `help:"Rename the share link to this slug."`
}

func (c *GalleryShareCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	shares := gallery.NewShareService(ctx.Store)

	var (
		share models.GalleryShare
		err   error
	)
	if c.Slug != "" {
		share, err = shares.UpdateSlug(bg, c.Slug)
	} else {
		share, err = shares.GetOrCreateDefault(bg)
	}
	switch {
	case errors.Is(err, storage.ErrSlugTaken):
		return fmt.Errorf("slug %q is already taken", c.Slug)
	case err != nil:
		return err
	}

	ctx.Printf("%s (%s)\n", gallery.BuildShareURL(ctx.Config.Server.BaseURL, share.Slug), share.Visibility)
	return nil
}
