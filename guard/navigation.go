package guard

import (
	"strings"

	"github.com/jrsteele09/hr-dashboard/internal/utils"
	"github.com/jrsteele09/hr-dashboard/users"
)

// MainGroup titles the top level items when navigation is grouped
const MainGroup = "Main"

// NavItem is either a link (Path set) or a category holding Children.
// A nil Permission means every authenticated user sees the item.
type NavItem struct {
	Title      string
	Path       string
	Permission *users.Permission
	Children   []NavItem
	// Category is filled in by FlattenNavigation for items taken out of a category
	Category string
}

type NavGroup struct {
	Title string
	Items []NavItem
}

func perm(resource, action string) *users.Permission {
	return utils.Ptr(users.Permission{Resource: resource, Action: action})
}

// DefaultNavigation is the dashboard's sidebar and search palette
func DefaultNavigation() []NavItem {
	return []NavItem{
		{Title: "Home", Path: "/"},
		{Title: "Reports", Path: "/report"},
		{Title: "Notifications", Path: "/notification"},
		{Title: "Employee management", Children: []NavItem{
			{Title: "Employee list", Path: "/human", Permission: perm("employees", "read")},
			{Title: "Edit employee", Path: "/human/edit", Permission: perm("employees", "write")},
			{Title: "Delete employee", Path: "/human/delete", Permission: perm("employees", "delete")},
		}},
		{Title: "Payroll management", Children: []NavItem{
			{Title: "Payroll", Path: "/payroll", Permission: perm("salaries", "read")},
			{Title: "Edit payroll", Path: "/payroll/edit", Permission: perm("salaries", "write")},
			{Title: "Delete payroll", Path: "/payroll/delete", Permission: perm("salaries", "delete")},
		}},
		{Title: "Personal information", Children: []NavItem{
			{Title: "My payroll", Path: "/my-payroll", Permission: perm("salary", "read")},
			{Title: "Profile", Path: "/profile", Permission: perm("user", "read")},
			{Title: "Account", Path: "/account", Permission: perm("user", "read")},
			{Title: "Edit account", Path: "/account/edit", Permission: perm("user", "write")},
		}},
		{Title: "Attendance management", Children: []NavItem{
			{Title: "Attendance", Path: "/attendance", Permission: perm("attendances", "read")},
			{Title: "Update attendance", Path: "/attendance/update", Permission: perm("attendances", "write")},
			{Title: "Delete attendance", Path: "/attendance/delete", Permission: perm("attendances", "delete")},
		}},
		{Title: "User management", Children: []NavItem{
			{Title: "Users", Path: "/users", Permission: perm("users", "read")},
			{Title: "Edit user", Path: "/users/edit", Permission: perm("users", "write")},
			{Title: "Delete user", Path: "/users/delete", Permission: perm("users", "delete")},
		}},
	}
}

func visible(c PermissionChecker, item NavItem) bool {
	return item.Permission == nil || Allow(c, item.Permission.Resource, item.Permission.Action)
}

// VisibleNavigation keeps the links the checker may see. Categories left
// without children are dropped.
func VisibleNavigation(c PermissionChecker, nav []NavItem) []NavItem {
	var out []NavItem
	for _, item := range nav {
		if len(item.Children) == 0 {
			if item.Path != "" && visible(c, item) {
				out = append(out, item)
			}
			continue
		}
		if !visible(c, item) {
			continue
		}
		children := VisibleNavigation(c, item.Children)
		if len(children) == 0 {
			continue
		}
		item.Children = children
		out = append(out, item)
	}
	return out
}

// FlattenNavigation lists every visible link; links from a category carry
// its title in Category.
func FlattenNavigation(c PermissionChecker, nav []NavItem) []NavItem {
	var out []NavItem
	for _, item := range VisibleNavigation(c, nav) {
		if len(item.Children) == 0 {
			out = append(out, item)
			continue
		}
		for _, child := range item.Children {
			child.Category = item.Title
			child.Children = nil
			out = append(out, child)
		}
	}
	return out
}

// GroupNavigation groups visible links by category, top level links first
// under MainGroup. Empty groups are omitted.
func GroupNavigation(c PermissionChecker, nav []NavItem) []NavGroup {
	var groups []NavGroup
	main := NavGroup{Title: MainGroup}
	for _, item := range VisibleNavigation(c, nav) {
		if len(item.Children) == 0 {
			main.Items = append(main.Items, item)
			continue
		}
		group := NavGroup{Title: item.Title}
		for _, child := range item.Children {
			child.Category = item.Title
			group.Items = append(group.Items, child)
		}
		groups = append(groups, group)
	}
	if len(main.Items) > 0 {
		groups = append([]NavGroup{main}, groups...)
	}
	return groups
}

// SearchNavigation matches the query case-insensitively against the title,
// category and path of every visible link. An empty query matches nothing.
func SearchNavigation(c PermissionChecker, nav []NavItem, query string) []NavItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []NavItem
	for _, item := range FlattenNavigation(c, nav) {
		if strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.Category), q) ||
			strings.Contains(strings.ToLower(item.Path), q) {
			out = append(out, item)
		}
	}
	return out
}
