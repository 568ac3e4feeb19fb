package admins_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-blog-admin/admins"
	"github.com/jrsteele09/go-blog-admin/admins/repofake"
	"github.com/stretchr/testify/require"
)

func TestStatusToggle(t *testing.T) {
	require.Equal(t, admins.StatusInactive, admins.StatusActive.Toggle())
	require.Equal(t, admins.StatusActive, admins.StatusInactive.Toggle())
	require.Equal(t, admins.StatusActive, admins.Status("").Toggle())
	require.False(t, admins.Status("banned").Valid())
}

func TestProfileDecodesMeResponse(t *testing.T) {
	body := `{"_id":"a1","name":"Ada","email":"ada@example.com","superAdmin":true,
		"created_at":"2024-01-02T03:04:05Z","updated_at":"2024-02-02T03:04:05Z","__v":0}`

	var p admins.Profile
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	require.Equal(t, "a1", p.ID)
	require.True(t, p.SuperAdmin)
	require.Equal(t, "Ada", p.DisplayName())

	p.Name = ""
	require.Equal(t, "ada@example.com", p.DisplayName())
	require.Empty(t, (*admins.Profile)(nil).DisplayName())
}

func TestAdminProfileProjection(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := admins.Admin{ID: "a1", Email: "ada@example.com", Name: "Ada", SuperAdmin: true, Status: admins.StatusActive, CreatedAt: &created}

	p := a.Profile()
	require.Equal(t, "2024-01-02T03:04:05Z", p.CreatedAt)
	require.Empty(t, p.UpdatedAt)
	require.True(t, a.Active())
}

func TestValidatePasswordStrength(t *testing.T) {
	require.Error(t, admins.ValidatePasswordStrength("Ab1"))
	require.Error(t, admins.ValidatePasswordStrength("alllowercase1"))
	require.Error(t, admins.ValidatePasswordStrength("ALLUPPERCASE1"))
	require.Error(t, admins.ValidatePasswordStrength("NoNumbersHere"))
	require.NoError(t, admins.ValidatePasswordStrength("Correct1Horse"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := admins.HashPassword("Correct1Horse")
	require.NoError(t, err)
	require.True(t, admins.CheckPasswordHash("Correct1Horse", hash))
	require.False(t, admins.CheckPasswordHash("wrong", hash))
}

func TestFakeAdminRepo(t *testing.T) {
	repo := repofake.NewFakeAdminRepo()
	require.NoError(t, repo.Upsert(&admins.Admin{Email: "Ada@Example.com", Name: "Ada"}))
	require.NoError(t, repo.Upsert(&admins.Admin{Email: "bob@example.com", Name: "Bob"}))

	ada, err := repo.GetByEmail("ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, ada.ID)
	require.Equal(t, admins.StatusActive, ada.Status)

	require.NoError(t, repo.SetStatus(ada.ID, admins.StatusInactive))
	ada, err = repo.GetByID(ada.ID)
	require.NoError(t, err)
	require.Equal(t, admins.StatusInactive, ada.Status)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = repo.GetByID("missing")
	require.ErrorIs(t, err, admins.ErrAdminNotFound)
	require.ErrorIs(t, repo.SetStatus("missing", admins.StatusActive), admins.ErrAdminNotFound)
}
