package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Smallest valid PNG header plus IHDR chunk.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func TestObjectName(t *testing.T) {
	name := ObjectName(PostImages, 42, "Holiday.JPG")
	assert.Regexp(t, regexp.MustCompile(`^post-images/42-[0-9a-f-]{36}\.jpg$`), name)

	assert.NotEqual(t, name, ObjectName(PostImages, 42, "Holiday.JPG"))
	assert.True(t, strings.HasPrefix(ObjectName(ProfilePictures, 1, "noext"), "profile-pictures/1-"))
}

func TestLocalImageStore_Save(t *testing.T) {
	root := t.TempDir()
	store := NewLocalImageStore(root, "/media/")

	ref, err := store.Save(context.Background(), ProfilePictures, 3, "me.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/media/profile-pictures/3-"))

	written, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(ref, "/media/"))))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, written)
}

func TestLocalImageStore_RejectsNonImage(t *testing.T) {
	root := t.TempDir()
	store := NewLocalImageStore(root, "/media")

	_, err := store.Save(context.Background(), PostImages, 3, "notes.png", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/pulse.appspot.com/post-images/1-x.png",
		PublicURL("pulse.appspot.com", "post-images/1-x.png"))
}
