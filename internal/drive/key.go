// Package drive models the virtual filesystem layered over the flat
// object store: per-user folder trees, optionally partitioned by patient,
// addressed through slash-delimited storage keys.
package drive

import "strings"

// Location is a logical address inside the drive. OwnerID is the root
// namespace; PatientID, when non-empty, selects the patient sub-tree.
// Path holds folder name segments from the root down and Name addresses
// a file inside that folder. Segments must not contain "/" themselves;
// no escaping or normalization is applied.
type Location struct {
	OwnerID   string
	PatientID string
	Path      []string
	Name      string
}

// Key renders the flat object-store key: owner[/patient][/path...][/name].
// Omitted parts are simply absent; there are no empty segments and no
// trailing slash.
func (l Location) Key() string {
	parts := make([]string, 0, len(l.Path)+3)
	parts = append(parts, l.OwnerID)
	if l.PatientID != "" {
		parts = append(parts, l.PatientID)
	}
	parts = append(parts, l.Path...)
	if l.Name != "" {
		parts = append(parts, l.Name)
	}
	return strings.Join(parts, "/")
}

// In returns a copy of the location addressing the folder with the given
// name below the current path.
func (l Location) In(folder string) Location {
	child := l
	child.Path = append(append([]string(nil), l.Path...), folder)
	child.Name = ""
	return child
}

// File returns a copy of the location addressing the named file in the
// current folder.
func (l Location) File(name string) Location {
	f := l
	f.Name = name
	return f
}

// FullPath is the drive-relative folder path (no owner or patient prefix),
// matching Folder.FullPath for the folder this location points at.
func (l Location) FullPath() string {
	return strings.Join(l.Path, "/")
}

// ParseFullPath splits a stored full path back into segments. An empty
// path means the root and yields no segments.
func ParseFullPath(fullPath string) []string {
	if fullPath == "" {
		return nil
	}
	return strings.Split(fullPath, "/")
}

// WithinSubtree reports whether fullPath lies inside the subtree rooted at
// root, including root itself. Matching is segment-aware: "A-other" is not
// inside "A" even though it shares the string prefix.
func WithinSubtree(root, fullPath string) bool {
	return fullPath == root || strings.HasPrefix(fullPath, root+"/")
}
