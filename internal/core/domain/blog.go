package domain

import "time"

type BlogStatus string

const (
	BlogDraft     BlogStatus = "draft"
	BlogPublished BlogStatus = "published"
)

func (s BlogStatus) Valid() bool {
	return s == BlogDraft || s == BlogPublished
}

func ParseBlogStatus(s string) (BlogStatus, error) {
	st := BlogStatus(s)
	if !st.Valid() {
		return "", Validation("unknown blog status " + quote(s))
	}
	return st, nil
}

// ToggledStatus returns the status stored when a client submits requested.
// The client sends the status it currently shows, so the stored value is the
// opposite one. Unknown values yield ok=false and must leave the post as is.
func ToggledStatus(requested string) (next BlogStatus, ok bool) {
	switch BlogStatus(requested) {
	case BlogPublished:
		return BlogDraft, true
	case BlogDraft:
		return BlogPublished, true
	default:
		return "", false
	}
}

type BlogPost struct {
	ID          string     `bson:"_id,omitempty" json:"_id,omitempty"`
	Title       string     `bson:"title" json:"title"`
	Thumbnail   string     `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Content     string     `bson:"content" json:"content"`
	Status      BlogStatus `bson:"status" json:"status"`
	AuthorEmail string     `bson:"authorEmail,omitempty" json:"authorEmail,omitempty"`
	AuthorName  string     `bson:"authorName,omitempty" json:"authorName,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type BlogPatch struct {
	Title     *string `bson:"title,omitempty" json:"title,omitempty"`
	Thumbnail *string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Content   *string `bson:"content,omitempty" json:"content,omitempty"`
}

func (p BlogPatch) Empty() bool {
	return p == BlogPatch{}
}
