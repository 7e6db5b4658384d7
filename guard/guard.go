// Package guard holds the pure access decisions the dashboard's screens
// make from session state: route guards, the permission gate and
// permission-filtered navigation.
package guard

// Route targets used by the guards
const (
	LoginRoute = "/login"
	HomeRoute  = "/"
)

// Viewer is the part of the session the route guards read
type Viewer interface {
	IsAuthenticated() bool
	IsLoading() bool
}

// PermissionChecker is the part of the session the permission gate reads
type PermissionChecker interface {
	HasPermission(resource, action string) bool
}

type Outcome int

const (
	ShowLoading Outcome = iota
	ShowContent
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case ShowLoading:
		return "loading"
	case ShowContent:
		return "content"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

type Decision struct {
	Outcome    Outcome
	RedirectTo string
}

func loading() Decision {
	return Decision{Outcome: ShowLoading}
}

func content() Decision {
	return Decision{Outcome: ShowContent}
}

func redirect(to string) Decision {
	return Decision{Outcome: Redirect, RedirectTo: to}
}

// Protected guards routes that need a session. Anonymous viewers go to
// the login route.
func Protected(v Viewer) Decision {
	if v.IsLoading() {
		return loading()
	}
	if !v.IsAuthenticated() {
		return redirect(LoginRoute)
	}
	return content()
}

// Public guards login and register. Authenticated viewers go home.
func Public(v Viewer) Decision {
	if v.IsLoading() {
		return loading()
	}
	if v.IsAuthenticated() {
		return redirect(HomeRoute)
	}
	return content()
}

// Allow is the permission gate predicate. It is evaluated on every call
// against the current session; nothing is cached.
func Allow(c PermissionChecker, resource, action string) bool {
	return c.HasPermission(resource, action)
}

// Gate returns children when the permission is held, otherwise the zero
// value and false.
func Gate[T any](c PermissionChecker, resource, action string, children T) (T, bool) {
	if !Allow(c, resource, action) {
		var zero T
		return zero, false
	}
	return children, true
}
