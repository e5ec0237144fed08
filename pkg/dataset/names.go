package dataset

import "strings"

// escapeChar replaces '/' in filesystem names so the full dataset name can
// be used as a single directory entry under a pool's filesystems directory.
// Part of the on-disk layout contract; changing it breaks existing roots.
const escapeChar = "%"

// ValidateComponent checks a name component: it must be non-empty, start
// with an alphanumeric character, and contain only alphanumerics plus
// underscore, hyphen, colon, and period. Slashes are accepted only when
// allowSlashes is set (filesystem paths).
func ValidateComponent(name string, allowSlashes bool) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if isAlnum(r) {
			continue
		}
		if i == 0 {
			return false
		}
		switch r {
		case '_', '-', ':', '.':
		case '/':
			if !allowSlashes {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// EscapeName converts a filesystem name to its on-disk directory entry name.
func EscapeName(name string) string {
	return strings.ReplaceAll(name, "/", escapeChar)
}

// UnescapeName is the exact inverse of EscapeName.
func UnescapeName(safe string) string {
	return strings.ReplaceAll(safe, escapeChar, "/")
}

// SplitName splits a raw identifier into filesystem and snapshot parts. The
// snapshot part is empty for plain filesystem identifiers. More than one '@'
// or an invalid component is an invalid-identifier error.
func SplitName(raw string) (fsName, snapName string, err error) {
	switch strings.Count(raw, "@") {
	case 0:
		fsName = raw
	case 1:
		fsName, snapName, _ = strings.Cut(raw, "@")
	default:
		return "", "", Errf(CodeInvalidIdentifier, raw, "invalid dataset identifier")
	}

	if !ValidateComponent(fsName, true) {
		return "", "", Errf(CodeInvalidIdentifier, raw, "invalid dataset identifier")
	}
	if strings.Contains(raw, "@") {
		if !ValidateComponent(snapName, false) {
			return "", "", Errf(CodeInvalidIdentifier, snapName, "invalid snapshot name")
		}
	}
	return fsName, snapName, nil
}

// PoolName returns the pool component of a dataset name (everything before
// the first '/').
func PoolName(name string) string {
	pool, _, _ := strings.Cut(name, "/")
	return pool
}

// parentName returns the name of a dataset's parent filesystem and true, or
// ("", false) when the name has no '/' (the parent is the pool).
func parentName(name string) (string, bool) {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return "", false
	}
	return name[:i], true
}
