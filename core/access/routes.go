package access

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/academyos/console/core/session"
)

//go:embed routes.yaml
var defaultManifest []byte

type (
	manifest struct {
		Login        string         `yaml:"login"`
		Register     string         `yaml:"register"`
		Unauthorized string         `yaml:"unauthorized"`
		Upgrade      string         `yaml:"upgrade"`
		Views        []manifestView `yaml:"views"`
	}

	manifestView struct {
		Path          string   `yaml:"path"`
		Name          string   `yaml:"name"`
		Title         string   `yaml:"title"`
		RequiredRoles []string `yaml:"requiredRoles"`
	}
)

// View is a protected console view.
type View struct {
	Path          string         `json:"path"`
	Name          string         `json:"name"`
	Title         string         `json:"title"`
	RequiredRoles []session.Role `json:"requiredRoles,omitempty"`
}

// Request is one navigation to a console path.
type Request struct {
	Path          string
	RequiredRoles []session.Role
	View          View // zero when the path matches no declared view
}

// Routes is the console's routing surface as seen by the access gate.
type Routes struct {
	LoginPath        string
	RegisterPath     string
	UnauthorizedPath string
	UpgradePath      string

	views []View // longest path first
}

// LoadRoutes reads the manifest at file, or the embedded default when file is empty.
func LoadRoutes(file string) (*Routes, error) {
	if file == "" {
		return ParseRoutes(defaultManifest)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "reading routes manifest")
	}
	return ParseRoutes(data)
}

// DefaultRoutes returns the embedded manifest. It panics if the manifest is invalid.
func DefaultRoutes() *Routes {
	r, err := ParseRoutes(defaultManifest)
	if err != nil {
		panic(err)
	}
	return r
}

func ParseRoutes(data []byte) (*Routes, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decoding routes manifest")
	}

	r := &Routes{
		LoginPath:        NormalizePath(m.Login),
		RegisterPath:     NormalizePath(m.Register),
		UnauthorizedPath: NormalizePath(m.Unauthorized),
		UpgradePath:      NormalizePath(m.Upgrade),
	}
	if m.Login == "" || m.Unauthorized == "" || m.Upgrade == "" {
		return nil, errors.New("routes manifest: login, unauthorized and upgrade paths are required")
	}

	seen := make(map[string]bool, len(m.Views))
	for _, mv := range m.Views {
		v := View{Path: NormalizePath(mv.Path), Name: mv.Name, Title: mv.Title}
		if seen[v.Path] {
			return nil, fmt.Errorf("routes manifest: duplicate view %q", v.Path)
		}
		seen[v.Path] = true
		for _, raw := range mv.RequiredRoles {
			role, err := session.ParseRole(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "routes manifest: view %q", v.Path)
			}
			v.RequiredRoles = append(v.RequiredRoles, role)
		}
		r.views = append(r.views, v)
	}
	sort.SliceStable(r.views, func(i, j int) bool { return len(r.views[i].Path) > len(r.views[j].Path) })
	return r, nil
}

// NormalizePath cleans p into an absolute path without trailing slash.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// Request builds the navigation request for rawPath.
func (r *Routes) Request(rawPath string) Request {
	p := NormalizePath(rawPath)
	req := Request{Path: p}
	if v, ok := r.Lookup(p); ok {
		req.View = v
		req.RequiredRoles = v.RequiredRoles
	}
	return req
}

// Lookup returns the view with the longest path prefix of p.
func (r *Routes) Lookup(p string) (View, bool) {
	for _, v := range r.views {
		if underPath(p, v.Path) {
			return v, true
		}
	}
	return View{}, false
}

// Views returns the declared views sorted by path.
func (r *Routes) Views() []View {
	views := make([]View, len(r.views))
	copy(views, r.views)
	sort.Slice(views, func(i, j int) bool { return views[i].Path < views[j].Path })
	return views
}

func (r *Routes) IsPublic(p string) bool {
	return p == r.LoginPath || (r.RegisterPath != "/" && p == r.RegisterPath)
}

// IsUpgrade reports whether p is the upgrade page or one of its subpaths.
func (r *Routes) IsUpgrade(p string) bool {
	return underPath(p, r.UpgradePath)
}

func (r *Routes) loginLocation(next string) string {
	return r.LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

func (r *Routes) upgradeLocation(returnTo string) string {
	return r.UpgradePath + "?" + url.Values{"returnTo": {returnTo}}.Encode()
}

func underPath(p, base string) bool {
	if base == "/" {
		return true
	}
	return p == base || strings.HasPrefix(p, base+"/")
}
