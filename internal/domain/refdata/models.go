package refdata

import "strings"

type Kind string

const (
	KindDepartment     Kind = "department"
	KindDesignation    Kind = "designation"
	KindEmploymentType Kind = "employment_type"
	KindRole           Kind = "role"
	KindCountry        Kind = "country"
	KindState          Kind = "state"
	KindCity           Kind = "city"
	KindManager        Kind = "manager"
)

var Kinds = []Kind{
	KindDepartment,
	KindDesignation,
	KindEmploymentType,
	KindRole,
	KindCountry,
	KindState,
	KindCity,
	KindManager,
}

func ParseKind(raw string) (Kind, bool) {
	normalized := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	for _, kind := range Kinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// Parent returns the kind whose selection scopes this list, if any.
func (k Kind) Parent() (Kind, bool) {
	switch k {
	case KindDesignation:
		return KindDepartment, true
	case KindState:
		return KindCountry, true
	case KindCity:
		return KindState, true
	}
	return "", false
}

// Creatable reports whether the inline "create new value" flow applies.
func (k Kind) Creatable() bool {
	switch k {
	case KindDepartment, KindDesignation, KindEmploymentType, KindRole:
		return true
	}
	return false
}

type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

type List struct {
	Kind     Kind   `json:"kind"`
	ParentID string `json:"parentId,omitempty"`
	Items    []Item `json:"items"`
	Failed   bool   `json:"failed,omitempty"`
}

func (l List) Find(id string) (Item, bool) {
	if id == "" {
		return Item{}, false
	}
	for _, item := range l.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

func (l List) Contains(id string) bool {
	_, ok := l.Find(id)
	return ok
}

// CreateInput is the payload of an inline reference create.
type CreateInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	ParentID string `json:"parentId,omitempty"`
}

type Created struct {
	ID   string `json:"id"`
	List List   `json:"list"`
}
