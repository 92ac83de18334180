package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePasswd(t *testing.T) {
	input := strings.Join([]string{
		"root:x:0:0:root:/root:/bin/bash",
		"",
		"# comment",
		"daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin",
		"broken line",
		"app:x:1000:1000::/app:/usr/sbin/nologin",
	}, "\n")

	users, err := ParsePasswd(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, PasswdEntry{Name: "root", UID: 0, GID: 0, Home: "/root", Shell: "/bin/bash"}, users[0])
	assert.Equal(t, PasswdEntry{Name: "app", UID: 1000, GID: 1000, Home: "/app", Shell: "/usr/sbin/nologin"}, users[2])
}

func TestParseGroup(t *testing.T) {
	input := "root:x:0:\napp:x:1000:\nnot a group\n"

	groups, err := ParseGroup(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, GroupEntry{Name: "root", GID: 0}, groups[0])
	assert.Equal(t, GroupEntry{Name: "app", GID: 1000}, groups[1])
}

func TestFormatRoundtrip(t *testing.T) {
	users := []PasswdEntry{
		{Name: "root", UID: 0, GID: 0, Home: "/root", Shell: "/bin/bash"},
		{Name: "app", UID: 1000, GID: 1000, Home: "/app", Shell: "/usr/sbin/nologin"},
	}
	groups := []GroupEntry{
		{Name: "root", GID: 0},
		{Name: "app", GID: 1000},
	}

	parsedUsers, err := ParsePasswd(strings.NewReader(FormatPasswd(users)))
	require.NoError(t, err)
	assert.Equal(t, users, parsedUsers)

	parsedGroups, err := ParseGroup(strings.NewReader(FormatGroup(groups)))
	require.NoError(t, err)
	assert.Equal(t, groups, parsedGroups)
}
