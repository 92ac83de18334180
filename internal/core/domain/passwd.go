package domain

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ParsePasswd reads user records in /etc/passwd format. Malformed lines are
// skipped rather than failing the whole base resolution.
func ParsePasswd(r io.Reader) ([]PasswdEntry, error) {
	var entries []PasswdEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 7 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			continue
		}
		entries = append(entries, PasswdEntry{
			Name:  fields[0],
			UID:   uid,
			GID:   gid,
			Home:  fields[5],
			Shell: fields[6],
		})
	}
	return entries, scanner.Err()
}

// ParseGroup reads group records in /etc/group format.
func ParseGroup(r io.Reader) ([]GroupEntry, error) {
	var entries []GroupEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			continue
		}
		gid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		entries = append(entries, GroupEntry{
			Name: fields[0],
			GID:  gid,
		})
	}
	return entries, scanner.Err()
}

// FormatPasswd renders entries back into /etc/passwd format.
func FormatPasswd(entries []PasswdEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteString(":x:")
		b.WriteString(strconv.Itoa(e.UID))
		b.WriteString(":")
		b.WriteString(strconv.Itoa(e.GID))
		b.WriteString("::")
		b.WriteString(e.Home)
		b.WriteString(":")
		b.WriteString(e.Shell)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatGroup renders entries back into /etc/group format.
func FormatGroup(entries []GroupEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteString(":x:")
		b.WriteString(strconv.Itoa(e.GID))
		b.WriteString(":\n")
	}
	return b.String()
}
