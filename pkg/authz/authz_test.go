package authz_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/notifyhub/pkg/authz"
	"github.com/platformkit/notifyhub/pkg/notification"
)

func testMessage(category notification.Category, scope notification.Scope) *notification.Message {
	return &notification.Message{
		ID:        uuid.NewString(),
		Type:      notification.TypeInfo,
		Category:  category,
		Priority:  notification.PriorityNormal,
		Title:     "title",
		Body:      "body",
		Scope:     scope,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRole_AtLeast(t *testing.T) {
	t.Parallel()

	assert.True(t, authz.RoleAdmin.AtLeast(authz.RoleModerator))
	assert.True(t, authz.RoleAdmin.AtLeast(authz.RoleAdmin))
	assert.True(t, authz.RoleModerator.AtLeast(authz.RoleUser))
	assert.False(t, authz.RoleUser.AtLeast(authz.RoleModerator))
	assert.False(t, authz.Role("intruder").AtLeast(authz.RoleUser))
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, err := authz.ParseRole("moderator")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleModerator, r)

	_, err = authz.ParseRole("superuser")
	assert.ErrorIs(t, err, authz.ErrUnknownRole)
}

func TestAuthorize_UserScope(t *testing.T) {
	t.Parallel()

	t.Run("self-addressed is allowed for any role", func(t *testing.T) {
		t.Parallel()

		producer := authz.Context{UserID: "u1", Role: authz.RoleUser}
		msg := testMessage(notification.CategoryUser, notification.UserScope("u1"))

		ns, err := authz.Authorize(producer, msg)
		require.NoError(t, err)
		assert.Equal(t, []authz.Namespace{authz.UserNamespace("u1")}, ns)
	})

	t.Run("cross-user requires moderator or above", func(t *testing.T) {
		t.Parallel()

		msg := testMessage(notification.CategoryUser, notification.UserScope("victim"))

		for _, producer := range []authz.Context{
			{UserID: "u1", Role: authz.RoleUser},
			{UserID: "u2", Role: authz.RoleUser},
		} {
			_, err := authz.Authorize(producer, msg)
			assert.ErrorIs(t, err, authz.ErrUnauthorizedDelivery)
		}

		ns, err := authz.Authorize(authz.Context{UserID: "mod", Role: authz.RoleModerator}, msg)
		require.NoError(t, err)
		assert.Equal(t, []authz.Namespace{authz.UserNamespace("victim")}, ns)

		ns, err = authz.Authorize(authz.Context{UserID: "root", Role: authz.RoleAdmin}, msg)
		require.NoError(t, err)
		assert.Equal(t, []authz.Namespace{authz.UserNamespace("victim")}, ns)
	})
}

func TestAuthorize_AdminOnlyCategories(t *testing.T) {
	t.Parallel()

	for _, category := range []notification.Category{
		notification.CategoryAdmin,
		notification.CategorySecurity,
	} {
		t.Run(string(category), func(t *testing.T) {
			t.Parallel()

			msg := testMessage(category, notification.BroadcastScope())

			_, err := authz.Authorize(authz.Context{UserID: "u1", Role: authz.RoleUser}, msg)
			assert.ErrorIs(t, err, authz.ErrUnauthorizedDelivery)

			// Moderator is not enough for admin-only namespaces.
			_, err = authz.Authorize(authz.Context{UserID: "mod", Role: authz.RoleModerator}, msg)
			assert.ErrorIs(t, err, authz.ErrUnauthorizedDelivery)

			ns, err := authz.Authorize(authz.Context{UserID: "root", Role: authz.RoleAdmin}, msg)
			require.NoError(t, err)
			assert.Equal(t, []authz.Namespace{authz.CategoryNamespace(category)}, ns)
		})
	}

	t.Run("admin-only applies even when self-addressed", func(t *testing.T) {
		t.Parallel()

		msg := testMessage(notification.CategorySecurity, notification.UserScope("u1"))
		_, err := authz.Authorize(authz.Context{UserID: "u1", Role: authz.RoleUser}, msg)
		assert.ErrorIs(t, err, authz.ErrUnauthorizedDelivery)
	})
}

func TestAuthorize_RoleAndBroadcastScopes(t *testing.T) {
	t.Parallel()

	producer := authz.Context{UserID: "u1", Role: authz.RoleUser}

	ns, err := authz.Authorize(producer, testMessage(notification.CategoryJob, notification.RoleScope("user")))
	require.NoError(t, err)
	assert.Equal(t, []authz.Namespace{authz.CategoryNamespace(notification.CategoryJob)}, ns)

	ns, err = authz.Authorize(producer, testMessage(notification.CategorySystem, notification.BroadcastScope()))
	require.NoError(t, err)
	assert.Equal(t, []authz.Namespace{authz.CategoryNamespace(notification.CategorySystem)}, ns)
}

func TestAuthorize_UnknownCategory(t *testing.T) {
	t.Parallel()

	msg := testMessage(notification.Category("marketing"), notification.BroadcastScope())
	_, err := authz.Authorize(authz.Context{UserID: "u1", Role: authz.RoleAdmin}, msg)
	assert.ErrorIs(t, err, authz.ErrUnknownCategory)
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()

	assert.True(t, authz.AdminOnly(notification.CategoryAdmin))
	assert.True(t, authz.AdminOnly(notification.CategorySecurity))
	assert.False(t, authz.AdminOnly(notification.CategoryUser))
	assert.False(t, authz.AdminOnly(notification.CategorySystem))
}

func TestNamespacesForRole(t *testing.T) {
	t.Parallel()

	userNS := authz.NamespacesForRole(authz.RoleUser)
	assert.NotContains(t, userNS, authz.CategoryNamespace(notification.CategoryAdmin))
	assert.NotContains(t, userNS, authz.CategoryNamespace(notification.CategorySecurity))
	assert.Contains(t, userNS, authz.CategoryNamespace(notification.CategoryUser))

	adminNS := authz.NamespacesForRole(authz.RoleAdmin)
	assert.Contains(t, adminNS, authz.CategoryNamespace(notification.CategoryAdmin))
	assert.Len(t, adminNS, len(notification.Categories()))
}
