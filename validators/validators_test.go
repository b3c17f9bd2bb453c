package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderName(t *testing.T) {
	for _, bad := range []string{"", "   ", "/", "//", ".", "..", "a/b", `a\b`, "/x/y/"} {
		_, err := FolderName(bad)
		assert.Error(t, err, "%q should be rejected", bad)
	}

	n, err := FolderName("/Reports/")
	require.NoError(t, err)
	assert.Equal(t, "Reports", n)
	assert.Equal(t, "2024/Reports/", FolderKey("2024", n))
	assert.Equal(t, "2024/Reports/", FolderKey("/2024/", n))
	assert.Equal(t, "Reports/", FolderKey("", n))
}

func TestObjectKey(t *testing.T) {
	k, err := ObjectKey("media//2024/", "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "media/2024/clip.mp4", k)

	k, err = ObjectKey("", `C:\Users\ana\photo.png`)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", k)

	_, err = ObjectKey("x", "  ")
	assert.ErrorIs(t, err, ErrFileNameEmpty)
}

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, EmailValidator("ana@example.com"))
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("Ana <ana@example.com>"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("nope"), ErrEmailInvalid)
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}

func TestPasswordValidator(t *testing.T) {
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("short"), ErrPasswordTooShort)
	assert.NoError(t, PasswordValidator("long enough"))
	assert.NoError(t, PasswordValidator("sеnhа-ção"))
	assert.ErrorIs(t, PasswordValidator("tab\tinside"), ErrPasswordInvalid)
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("a", 256)), ErrPasswordTooLong)
}
