package api

import (
	"fmt"
	"strings"
	"time"
)

// User is the account returned by the auth server at login.
type User struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// Validate reports whether u carries the fields the site relies on.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: user without _id", ErrInvalidResponse)
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: user %s without email", ErrInvalidResponse, u.ID)
	}
	return nil
}

// loginResponse is the flat login body: user fields plus the token.
type loginResponse struct {
	User
	Token string `json:"token"`
}

// Blog is a post as served by the content API.
type Blog struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Validate reports whether b is usable for rendering and linking.
func (b Blog) Validate() error {
	switch {
	case strings.TrimSpace(b.ID) == "":
		return fmt.Errorf("%w: blog without _id", ErrInvalidResponse)
	case strings.TrimSpace(b.Title) == "":
		return fmt.Errorf("%w: blog %s without title", ErrInvalidResponse, b.ID)
	case strings.TrimSpace(b.Slug) == "":
		return fmt.Errorf("%w: blog %s without slug", ErrInvalidResponse, b.ID)
	}
	return nil
}

// Link is the public path of the post.
func (b Blog) Link() string {
	return "/blogs/" + b.Slug + "/"
}

// BlogInput is the body of create and update requests.
type BlogInput struct {
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Slug    string   `json:"slug"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Input returns the editable fields of b.
func (b Blog) Input() BlogInput {
	return BlogInput{
		Title:   b.Title,
		Excerpt: b.Excerpt,
		Slug:    b.Slug,
		Content: b.Content,
		Tags:    b.Tags,
	}
}

// Project is a portfolio entry as served by the content API.
type Project struct {
	ID           string   `json:"_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	GithubURL    string   `json:"githubUrl"`
	LiveURL      string   `json:"liveUrl"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
}

// Validate reports whether p is usable for rendering.
func (p Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: project without _id", ErrInvalidResponse)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: project %s without title", ErrInvalidResponse, p.ID)
	}
	return nil
}

// ProjectInput is the body of create and update requests.
type ProjectInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	GithubURL    string   `json:"githubUrl"`
	LiveURL      string   `json:"liveUrl"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
}

// Input returns the editable fields of p.
func (p Project) Input() ProjectInput {
	return ProjectInput{
		Title:        p.Title,
		Description:  p.Description,
		Image:        p.Image,
		GithubURL:    p.GithubURL,
		LiveURL:      p.LiveURL,
		Technologies: p.Technologies,
		Featured:     p.Featured,
	}
}
