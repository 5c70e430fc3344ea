// Package model holds the value objects persisted by the repositories.
//
// An ID of 0 means the entity has not been persisted yet. Zero values of
// strings, dates, enums and back-reference ids are stored as SQL NULL.
// Owners and children are linked by the repositories after a query; no type
// here keeps a pointer back to the structure that holds it.
package model

import "time"

// Brand owns many car models.
type Brand struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Founded time.Time `json:"founded"`
	Models  []Model   `json:"models,omitempty"`
}

// Model is a car model; BrandID is the back-reference column.
type Model struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Length  int      `json:"length"`
	Width   int      `json:"width"`
	Body    BodyType `json:"body"`
	BrandID int64    `json:"brand_id"`

	// Brand is only filled by ModelRepository.
	Brand *Brand `json:"brand,omitempty"`
}

// Employee owns at most one task.
type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	Task      *Task     `json:"task,omitempty"`
}

// Task is assigned to at most one employee through EmployeeID.
type Task struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Deadline    time.Time `json:"deadline"`
	Description string    `json:"description"`
	Type        TaskType  `json:"type"`
	EmployeeID  int64     `json:"employee_id"`

	// Employee is only filled by TaskRepository.
	Employee *Employee `json:"employee,omitempty"`
}

// Street exposes its houses through houses.street_id.
type Street struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Postcode int     `json:"postcode"`
	Houses   []House `json:"houses,omitempty"`
}

// House belongs to a street through StreetID.
type House struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Built    time.Time    `json:"built"`
	Floors   int          `json:"floors"`
	Type     BuildingType `json:"type"`
	StreetID int64        `json:"street_id"`

	// Street is only filled by HouseRepository.
	Street *Street `json:"street,omitempty"`
}

// Master is linked to kitties through the master_kitty association table.
type Master struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Birthday time.Time `json:"birthday"`
	Kitties  []Kitty   `json:"kitties,omitempty"`
}

// Kitty is linked to masters through the master_kitty association table.
type Kitty struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Birthday time.Time `json:"birthday"`
	Breed    string    `json:"breed"`
	Color    Color     `json:"color"`

	// Masters is only filled by KittyRepository.
	Masters []Master `json:"masters,omitempty"`
}

// Date returns the calendar date of t at midnight UTC. The zero time stays zero.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
