package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legalistas/brixar-sub002/internal/auth"
	"github.com/Legalistas/brixar-sub002/internal/models"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewUserService(db)

	_, err := svc.Register(ctx, "Ana", "not-an-email", "secret123")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, "Ana", "ana@brixar.test", "short")
	assert.ErrorIs(t, err, ErrValidation)

	user, err := svc.Register(ctx, " Ana ", " Ana@Brixar.test ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@brixar.test", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	_, err = svc.Register(ctx, "Ana", "ana@brixar.test", "secret123")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := svc.Authenticate(ctx, "ANA@brixar.test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana@brixar.test", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@brixar.test", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewUserService(db)

	_, err := svc.EnsureUser(ctx, "Root", "root@brixar.test", "first-pass", "OWNER")
	assert.ErrorIs(t, err, ErrValidation)

	created, err := svc.EnsureUser(ctx, "Root", "root@brixar.test", "first-pass", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, created.IsAdmin())

	again, err := svc.EnsureUser(ctx, "Root", "root@brixar.test", "second-pass", models.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, models.RoleSeller, again.Role)
	assert.True(t, auth.CheckPasswordHash("second-pass", again.PasswordHash))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "torre-norte", Slugify("  Torre  Norte "))
	assert.Equal(t, "casa-3-ambientes", Slugify("Casa (3 ambientes)!"))
	assert.Equal(t, "", Slugify("--"))
}

func TestProjectsAndProperties(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, admin := seedUser(t, db, models.RoleAdmin)
	_, seller := seedUser(t, db, models.RoleSeller)
	_, customer := seedUser(t, db, models.RoleCustomer)

	projects := NewProjectService(db)
	_, err := projects.CreateProject(ctx, seller, "", "Torre", "")
	assert.ErrorIs(t, err, ErrForbidden)
	project, err := projects.CreateProject(ctx, admin, "", "Torre Norte", "12 pisos")
	require.NoError(t, err)
	assert.Equal(t, "torre-norte", project.Slug)
	_, err = projects.CreateProject(ctx, admin, "torre-norte", "Otra", "")
	assert.ErrorIs(t, err, ErrConflict)
	found, err := projects.GetProjectBySlug(ctx, "torre-norte")
	require.NoError(t, err)
	assert.Equal(t, project.ID, found.ID)

	properties := NewPropertyService(db)
	_, err = properties.CreateProperty(ctx, customer, CreatePropertyInput{Title: "Casa", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = properties.CreateProperty(ctx, seller, CreatePropertyInput{Title: "Casa"})
	assert.ErrorIs(t, err, ErrValidation)

	property, err := properties.CreateProperty(ctx, seller, CreatePropertyInput{Title: "Casa en Palermo", Price: decimal.NewFromInt(150000)})
	require.NoError(t, err)
	assert.Equal(t, "casa-en-palermo", property.Slug)
	assert.Equal(t, "USD", property.CurrencyCode)
	assert.Equal(t, models.PropertyAvailable, property.Status)
	require.NotNil(t, property.SellerID)
	assert.Equal(t, seller.UserID, *property.SellerID)

	byAdmin, err := properties.CreateProperty(ctx, admin, CreatePropertyInput{Title: "Lote", Slug: "lote-1", Price: decimal.NewFromInt(1), CurrencyCode: "ars"})
	require.NoError(t, err)
	assert.Nil(t, byAdmin.SellerID)
	assert.Equal(t, "ARS", byAdmin.CurrencyCode)

	got, err := properties.GetProperty(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casa en Palermo", got.Title)
}
