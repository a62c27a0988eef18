package apiclient

import (
	"fmt"
	"strings"
)

// HostRule is one NFS allowed-hosts entry:
//
//	<host-or-cidr-or-hostname>:<is_root_squash>:<uid>:<gid>
//
// Only the host is required, but the colon positions are fixed, so a rule
// with only a host and root squash set renders as "10.0.0.1:false::".
// Every field is kept as written and sent verbatim; neither octet ranges
// nor the root squash flag are checked here.
type HostRule struct {
	Host       string
	RootSquash string
	UID        string
	GID        string
}

// String renders the rule in wire format.
func (r HostRule) String() string {
	return strings.Join([]string{r.Host, r.RootSquash, r.UID, r.GID}, ":")
}

// ParseHostRule parses the wire format. Missing trailing fields are allowed.
func ParseHostRule(s string) (HostRule, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 4 {
		return HostRule{}, fmt.Errorf("host rule %q: expected at most 4 colon-separated fields, got %d", s, len(parts))
	}
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	return HostRule{Host: parts[0], RootSquash: parts[1], UID: parts[2], GID: parts[3]}, nil
}

// MustParseHostRule is like ParseHostRule but panics on error. It is meant
// for statically declared rules.
func MustParseHostRule(s string) HostRule {
	r, err := ParseHostRule(s)
	if err != nil {
		panic(err)
	}
	return r
}

// MarshalText implements encoding.TextMarshaler.
func (r HostRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *HostRule) UnmarshalText(text []byte) error {
	parsed, err := ParseHostRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
