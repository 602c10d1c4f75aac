package handler

import (
	"time"

	"boardcafe/backend/internal/models"
)

// region --- Response DTOs ---

// UserResponse is a user's own profile.
type UserResponse struct {
	ID       uint   `json:"id" example:"1"`
	Nickname string `json:"nickname" example:"meeple"`
	Email    string `json:"email" example:"meeple@example.com"`
	Role     string `json:"role" example:"user"`
}

// CafeResponse is the public view of a café.
type CafeResponse struct {
	ID          uint   `json:"id" example:"1"`
	Name        string `json:"name" example:"Meeple House"`
	Address     string `json:"address" example:"1 Dice Street"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty" example:"/uploads/cafes/3f2a.png"`
}

type TableResponse struct {
	ID       uint   `json:"id" example:"1"`
	CafeID   uint   `json:"cafe_id" example:"1"`
	Label    string `json:"label" example:"T1"`
	Capacity int    `json:"capacity" example:"4"`
}

type GameResponse struct {
	ID          uint   `json:"id" example:"1"`
	CafeID      uint   `json:"cafe_id" example:"1"`
	Name        string `json:"name" example:"Catan"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" example:"4500"`
	Stock       int    `json:"stock" example:"3"`
}

type ManagerResponse struct {
	ID       uint   `json:"id" example:"1"`
	UserID   uint   `json:"user_id" example:"2"`
	Nickname string `json:"nickname,omitempty" example:"boss"`
	CafeID   uint   `json:"cafe_id" example:"1"`
	CafeName string `json:"cafe_name,omitempty" example:"Meeple House"`
}

// MemberResponse is a user who joined a group.
type MemberResponse struct {
	UserID   uint      `json:"user_id" example:"3"`
	Nickname string    `json:"nickname,omitempty" example:"rook"`
	JoinedAt time.Time `json:"joined_at"`
}

type GroupResponse struct {
	ID            uint             `json:"id" example:"1"`
	ReservationID uint             `json:"reservation_id" example:"1"`
	OwnerID       uint             `json:"owner_id" example:"1"`
	Name          string           `json:"name" example:"Friday Catan"`
	OpenSeats     int              `json:"open_seats" example:"2"`
	Members       []MemberResponse `json:"members"`
	CafeID        uint             `json:"cafe_id,omitempty" example:"1"`
	CafeName      string           `json:"cafe_name,omitempty" example:"Meeple House"`
	TableLabel    string           `json:"table_label,omitempty" example:"T1"`
	GameName      string           `json:"game_name,omitempty" example:"Catan"`
	StartTime     *time.Time       `json:"start_time,omitempty"`
	EndTime       *time.Time       `json:"end_time,omitempty"`
}

type ReservationResponse struct {
	ID         uint           `json:"id" example:"1"`
	CafeID     uint           `json:"cafe_id" example:"1"`
	CafeName   string         `json:"cafe_name,omitempty" example:"Meeple House"`
	TableID    uint           `json:"table_id" example:"1"`
	TableLabel string         `json:"table_label,omitempty" example:"T1"`
	UserID     uint           `json:"user_id" example:"1"`
	GameID     *uint          `json:"game_id,omitempty" example:"1"`
	GameName   string         `json:"game_name,omitempty" example:"Catan"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Group      *GroupResponse `json:"group,omitempty"`
}

// endregion

func newUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Nickname: u.Nickname, Email: u.Email, Role: u.Role}
}

func newCafeResponse(cafe models.Cafe) CafeResponse {
	resp := CafeResponse{
		ID:          cafe.ID,
		Name:        cafe.Name,
		Address:     cafe.Address,
		Description: cafe.Description,
	}
	if cafe.ImagePath != "" {
		resp.ImageURL = "/uploads/" + cafe.ImagePath
	}
	return resp
}

func newTableResponse(t models.Table) TableResponse {
	return TableResponse{ID: t.ID, CafeID: t.CafeID, Label: t.Label, Capacity: t.Capacity}
}

func newGameResponse(g models.Game) GameResponse {
	return GameResponse{
		ID:          g.ID,
		CafeID:      g.CafeID,
		Name:        g.Name,
		Description: g.Description,
		PriceCents:  g.PriceCents,
		Stock:       g.Stock,
	}
}

func newManagerResponse(m models.Manager) ManagerResponse {
	return ManagerResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Nickname: m.User.Nickname,
		CafeID:   m.CafeID,
		CafeName: m.Cafe.Name,
	}
}

func newGroupResponse(g models.Group) GroupResponse {
	resp := GroupResponse{
		ID:            g.ID,
		ReservationID: g.ReservationID,
		OwnerID:       g.OwnerID,
		Name:          g.Name,
		OpenSeats:     g.OpenSeats,
		Members:       make([]MemberResponse, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		resp.Members = append(resp.Members, MemberResponse{UserID: m.UserID, Nickname: m.User.Nickname, JoinedAt: m.CreatedAt})
	}
	if r := g.Reservation; r.ID != 0 {
		start, end := r.StartTime, r.EndTime
		resp.CafeID = r.CafeID
		resp.CafeName = r.Cafe.Name
		resp.TableLabel = r.Table.Label
		if r.Game != nil {
			resp.GameName = r.Game.Name
		}
		resp.StartTime = &start
		resp.EndTime = &end
	}
	return resp
}

func newReservationResponse(r models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:         r.ID,
		CafeID:     r.CafeID,
		CafeName:   r.Cafe.Name,
		TableID:    r.TableID,
		TableLabel: r.Table.Label,
		UserID:     r.UserID,
		GameID:     r.GameID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
	}
	if r.Game != nil {
		resp.GameName = r.Game.Name
	}
	if r.Group != nil {
		g := newGroupResponse(*r.Group)
		resp.Group = &g
	}
	return resp
}
