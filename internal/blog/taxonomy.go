package blog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"stitchtales/internal/models"
	"stitchtales/internal/store"
)

// CategoryInput is the writable shape of a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=200,slug"`
	Description string `json:"description"`
}

// TagInput is the writable shape of a tag.
type TagInput struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=200,slug"`
}

// Taxonomy manages categories and tags. Mutations are admin only.
type Taxonomy struct {
	categories *store.CategoryStore
	tags       *store.TagStore
	catalog    CatalogInvalidator
}

// NewTaxonomy creates the taxonomy service. catalog may be nil.
func NewTaxonomy(categories *store.CategoryStore, tags *store.TagStore, catalog CatalogInvalidator) *Taxonomy {
	if catalog == nil {
		catalog = noopInvalidator{}
	}
	return &Taxonomy{categories: categories, tags: tags, catalog: catalog}
}

func requireAdmin(actor *models.User, action string) error {
	if actor == nil || !actor.IsAdmin() {
		return &PermissionError{Action: action}
	}
	return nil
}

// resolveSlug returns the explicit slug if given, otherwise a free slug
// derived from name.
func resolveSlug(ctx context.Context, explicit, name string, next func(context.Context, string) (string, error)) (string, bool, error) {
	if explicit != "" {
		return explicit, true, nil
	}
	base := derivedSlug("term", name)
	if base == "" {
		return "", false, invalid("name", "Name must contain at least one letter or digit.")
	}
	free, err := next(ctx, base)
	return free, false, err
}

func slugConflict(resource string) *ConflictError {
	return &ConflictError{Field: "slug", Message: "A " + resource + " with this slug already exists."}
}

// ListCategories returns every category with its published post count.
func (t *Taxonomy) ListCategories(ctx context.Context) ([]models.Category, error) {
	return t.categories.List(ctx)
}

// CategoryBySlug returns a category or NotFoundError.
func (t *Taxonomy) CategoryBySlug(ctx context.Context, s string) (*models.Category, error) {
	c, err := t.categories.FindBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Resource: "category", Key: s}
	}
	return c, nil
}

// CreateCategory adds a category. A blank slug is derived from the name.
func (t *Taxonomy) CreateCategory(ctx context.Context, actor *models.User, in CategoryInput) (*models.Category, error) {
	if err := requireAdmin(actor, "create category"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)
	if err := check(in); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		s, explicit, err := resolveSlug(ctx, in.Slug, in.Name, t.categories.NextFreeSlug)
		if err != nil {
			return nil, err
		}
		c, err := t.categories.Create(ctx, &models.Category{Name: in.Name, Slug: s, Description: in.Description})
		if errors.Is(err, store.ErrCategorySlugTaken) {
			if explicit || attempt+1 >= slugAttempts {
				return nil, slugConflict("category")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Info("category created", "category_id", c.ID, "slug", c.Slug)
		t.catalog.Invalidate(ctx)
		return c, nil
	}
}

// UpdateCategory replaces a category's fields. A blank slug keeps the
// current one.
func (t *Taxonomy) UpdateCategory(ctx context.Context, actor *models.User, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	if err := requireAdmin(actor, "edit category"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)
	if err := check(in); err != nil {
		return nil, err
	}

	current, err := t.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &NotFoundError{Resource: "category", Key: id.String()}
	}
	current.Name = in.Name
	current.Description = in.Description
	if in.Slug != "" {
		current.Slug = in.Slug
	}

	c, err := t.categories.Update(ctx, current)
	if errors.Is(err, store.ErrCategorySlugTaken) {
		return nil, slugConflict("category")
	}
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Resource: "category", Key: id.String()}
	}
	t.catalog.Invalidate(ctx)
	return c, nil
}

// DeleteCategory removes a category; its posts become uncategorised.
func (t *Taxonomy) DeleteCategory(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := requireAdmin(actor, "delete category"); err != nil {
		return err
	}
	ok, err := t.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "category", Key: id.String()}
	}
	slog.Info("category deleted", "category_id", id)
	t.catalog.Invalidate(ctx)
	return nil
}

// ListTags returns every tag with its published post count.
func (t *Taxonomy) ListTags(ctx context.Context) ([]models.Tag, error) {
	return t.tags.List(ctx)
}

// TagBySlug returns a tag or NotFoundError.
func (t *Taxonomy) TagBySlug(ctx context.Context, s string) (*models.Tag, error) {
	tag, err := t.tags.FindBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, &NotFoundError{Resource: "tag", Key: s}
	}
	return tag, nil
}

// CreateTag adds a tag. A blank slug is derived from the name.
func (t *Taxonomy) CreateTag(ctx context.Context, actor *models.User, in TagInput) (*models.Tag, error) {
	if err := requireAdmin(actor, "create tag"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := check(in); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		s, explicit, err := resolveSlug(ctx, in.Slug, in.Name, t.tags.NextFreeSlug)
		if err != nil {
			return nil, err
		}
		tag, err := t.tags.Create(ctx, &models.Tag{Name: in.Name, Slug: s})
		if errors.Is(err, store.ErrTagSlugTaken) {
			if explicit || attempt+1 >= slugAttempts {
				return nil, slugConflict("tag")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Info("tag created", "tag_id", tag.ID, "slug", tag.Slug)
		t.catalog.Invalidate(ctx)
		return tag, nil
	}
}

// UpdateTag renames a tag. A blank slug keeps the current one.
func (t *Taxonomy) UpdateTag(ctx context.Context, actor *models.User, id uuid.UUID, in TagInput) (*models.Tag, error) {
	if err := requireAdmin(actor, "edit tag"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := check(in); err != nil {
		return nil, err
	}

	current, err := t.tags.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &NotFoundError{Resource: "tag", Key: id.String()}
	}
	current.Name = in.Name
	if in.Slug != "" {
		current.Slug = in.Slug
	}

	tag, err := t.tags.Update(ctx, current)
	if errors.Is(err, store.ErrTagSlugTaken) {
		return nil, slugConflict("tag")
	}
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, &NotFoundError{Resource: "tag", Key: id.String()}
	}
	t.catalog.Invalidate(ctx)
	return tag, nil
}

// DeleteTag removes a tag and its post associations; the posts remain.
func (t *Taxonomy) DeleteTag(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := requireAdmin(actor, "delete tag"); err != nil {
		return err
	}
	ok, err := t.tags.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "tag", Key: id.String()}
	}
	slog.Info("tag deleted", "tag_id", id)
	t.catalog.Invalidate(ctx)
	return nil
}
