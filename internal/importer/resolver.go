package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/utils"
	"github.com/sitetrack/sitetrack-backend/pkg/config"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

// Resolver binds vendor worker ids from the User List section to user
// accounts, creating accounts for names it cannot match.
type Resolver struct {
	users UserStore
	cfg   config.ImportConfig

	// snapshot is every user ordered by creation time; accounts created
	// during a run are appended so the positional fallback sees them.
	snapshot []domain.User
}

func NewResolver(users UserStore, cfg config.ImportConfig) *Resolver {
	return &Resolver{users: users, cfg: cfg}
}

// Load takes the creation-ordered user snapshot the run works against.
func (r *Resolver) Load(ctx context.Context) error {
	snapshot, err := r.users.ListByCreation(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	r.snapshot = snapshot
	return nil
}

// Snapshot exposes the creation-ordered users for positional lookups.
func (r *Resolver) Snapshot() []domain.User {
	return r.snapshot
}

// ResolveEntry maps one User List row (vendor id + display name) to a user,
// provisioning an account when no existing one matches. A failed creation is
// reported in the diagnostics row and the run continues.
func (r *Resolver) ResolveEntry(ctx context.Context, sess *Session, csvID, csvName string, defaultProject uuid.UUID) {
	actual := utils.StripLeadingNumber(csvName)

	info := UserMappingInfo{
		CsvID:      csvID,
		CsvName:    csvName,
		ActualName: actual,
	}

	if match := r.findMatch(csvName, actual); match != nil {
		sess.Mapping[csvID] = match.ID
		info.MatchedUserID = match.ID.String()
		info.MatchedUserName = match.Name
		info.Status = MappingMatched
		sess.Diagnostics = append(sess.Diagnostics, info)
		return
	}

	created, err := r.provision(ctx, actual, defaultProject)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to provision worker account", "name", actual, "error", err)
		info.Status = MappingCreationFailed
		info.Error = err.Error()
		sess.Diagnostics = append(sess.Diagnostics, info)
		return
	}

	r.snapshot = append(r.snapshot, *created)
	sess.Mapping[csvID] = created.ID
	sess.CreatedUsers++
	info.MatchedUserID = created.ID.String()
	info.MatchedUserName = created.Name
	info.Status = MappingCreated
	sess.Diagnostics = append(sess.Diagnostics, info)
}

// findMatch walks the snapshot in creation order, trying exact match on the
// cleaned name, then exact match on the raw name, then a substring match.
// First hit wins at each tier.
func (r *Resolver) findMatch(rawName, actualName string) *domain.User {
	for i := range r.snapshot {
		if strings.EqualFold(r.snapshot[i].Name, actualName) {
			return &r.snapshot[i]
		}
	}
	for i := range r.snapshot {
		if strings.EqualFold(r.snapshot[i].Name, rawName) {
			return &r.snapshot[i]
		}
	}
	needle := strings.ToLower(strings.TrimSpace(actualName))
	if needle == "" {
		return nil
	}
	for i := range r.snapshot {
		if strings.Contains(strings.ToLower(r.snapshot[i].Name), needle) {
			return &r.snapshot[i]
		}
	}
	return nil
}

func (r *Resolver) provision(ctx context.Context, name string, defaultProject uuid.UUID) (*domain.User, error) {
	email, err := r.uniqueEmail(ctx, name)
	if err != nil {
		return nil, err
	}

	hash, err := argon2id.CreateHash(r.cfg.WorkerPassword, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hash worker password: %w", err)
	}

	req := &domain.CreateUserRequest{
		Name:       name,
		Email:      email,
		Role:       domain.RoleEmployee,
		Department: "Workers",
		ProjectIDs: []uuid.UUID{defaultProject},
	}

	created, err := r.users.Create(ctx, req, hash)
	if err != nil {
		return nil, fmt.Errorf("create worker %q: %w", name, err)
	}

	logger.InfoContext(ctx, "Provisioned worker account", "name", name, "email", email)
	return created, nil
}

// uniqueEmail synthesizes {slug}@{domain}, appending 1, 2, ... until the
// address is free.
func (r *Resolver) uniqueEmail(ctx context.Context, name string) (string, error) {
	slug := utils.Slugify(name)
	if slug == "" {
		slug = "worker"
	}

	email := fmt.Sprintf("%s@%s", slug, r.cfg.WorkerEmailDomain)
	for suffix := 1; ; suffix++ {
		existing, err := r.users.FindByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("check email %s: %w", email, err)
		}
		if existing == nil {
			return email, nil
		}
		email = fmt.Sprintf("%s%d@%s", slug, suffix, r.cfg.WorkerEmailDomain)
	}
}
