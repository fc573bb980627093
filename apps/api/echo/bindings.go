package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/walimuhq/walimu/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	DestroyMultipleRequest struct {
		IDs []string `json:"ids"`
	}

	// CalculateRequest identifies the tutor to score.
	CalculateRequest struct {
		TutorID string `json:"tutorId" validate:"required"`
	}

	// RecalculateRequest identifies the tutor by ID or email address.
	RecalculateRequest struct {
		Tutor string `json:"tutor" validate:"required"`
	}
)
