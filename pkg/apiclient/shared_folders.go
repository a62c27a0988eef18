package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Mode is the export write mode of a shared folder.
type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// SharedFolder describes a shared folder as sent to the appliance.
//
// AllowedHosts distinguishes nil (the field is not sent at all) from an
// empty, non-nil slice (the field is sent with an empty value).
type SharedFolder struct {
	Name         string     `json:"name" yaml:"name"`
	NFS          bool       `json:"nfs" yaml:"nfs"`
	SMB          bool       `json:"smb" yaml:"smb"`
	ReadOnly     bool       `json:"read_only" yaml:"read_only"`
	Mode         Mode       `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowedHosts []HostRule `json:"allowed_hosts,omitempty" yaml:"allowed_hosts,omitempty"`
}

func (f SharedFolder) mode() string {
	if f.Mode == "" {
		return string(ModeSync)
	}
	return string(f.Mode)
}

// values returns the common field set of create and edit requests.
func (f SharedFolder) values() url.Values {
	v := url.Values{}
	v.Set("name", f.Name)
	v.Set("nfs", strconv.FormatBool(f.NFS))
	v.Set("smb", strconv.FormatBool(f.SMB))
	v.Set("mode", f.mode())
	v.Set("read_only", strconv.FormatBool(f.ReadOnly))
	return v
}

// CreateSharedFolder creates a shared folder.
func (c *Client) CreateSharedFolder(ctx context.Context, f SharedFolder) (*RawResponse, error) {
	return c.get(ctx, "create_shared_folder", PathCreateFolder, f.values())
}

// DeleteSharedFolder deletes a shared folder by name. Deleting a name that
// does not exist is answered with return code 34, not with an error.
func (c *Client) DeleteSharedFolder(ctx context.Context, name string) (*RawResponse, error) {
	q := url.Values{}
	q.Set("name", name)
	return c.get(ctx, "delete_shared_folder", PathDeleteFolder, q)
}

// EditSharedFolder replaces the settings of an existing shared folder.
// nfs_allowed_hosts is only sent when f.AllowedHosts is non-nil.
func (c *Client) EditSharedFolder(ctx context.Context, f SharedFolder) (*RawResponse, error) {
	form := f.values()
	if f.AllowedHosts != nil {
		form.Set("nfs_allowed_hosts", JoinHostRules(f.AllowedHosts))
	}
	return c.postForm(ctx, "edit_shared_folder", PathEditFolder, form)
}

// JoinHostRules serializes rules as a comma-delimited list.
func JoinHostRules(rules []HostRule) string {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}
