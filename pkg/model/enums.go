package model

import (
	"errors"
	"fmt"
)

// ErrUnknownEnum is returned when stored text matches no enumeration value.
var ErrUnknownEnum = errors.New("unknown enumeration value")

// BodyType is the body style of a car model.
type BodyType string

const (
	BodySedan        BodyType = "SEDAN"
	BodyHatchback    BodyType = "HATCHBACK"
	BodyStationWagon BodyType = "STATION_WAGON"
	BodyCoupe        BodyType = "COUPE"
	BodyPickup       BodyType = "PICKUP"
	BodyRoadster     BodyType = "ROADSTER"
)

// TaskType classifies a task.
type TaskType string

const (
	TaskNewFunctionality TaskType = "NEW_FUNCTIONALITY"
	TaskBug              TaskType = "BUG"
	TaskImprovement      TaskType = "IMPROVEMENT"
	TaskAnalytics        TaskType = "ANALYTICS"
)

// BuildingType classifies a house.
type BuildingType string

const (
	BuildingLivingQuarters BuildingType = "LIVING_QUARTERS"
	BuildingCommercial     BuildingType = "COMMERCIAL"
	BuildingGarage         BuildingType = "GARAGE"
	BuildingAncillary      BuildingType = "ANCILLARY"
)

// Color is a kitty's coat color.
type Color string

const (
	ColorWhite     Color = "WHITE"
	ColorBlack     Color = "BLACK"
	ColorRedHaired Color = "RED_HAIRED"
	ColorBrown     Color = "BROWN"
	ColorGrey      Color = "GREY"
)

var (
	bodyTypes     = lookup(BodySedan, BodyHatchback, BodyStationWagon, BodyCoupe, BodyPickup, BodyRoadster)
	taskTypes     = lookup(TaskNewFunctionality, TaskBug, TaskImprovement, TaskAnalytics)
	buildingTypes = lookup(BuildingLivingQuarters, BuildingCommercial, BuildingGarage, BuildingAncillary)
	colors        = lookup(ColorWhite, ColorBlack, ColorRedHaired, ColorBrown, ColorGrey)
)

func lookup[T ~string](values ...T) map[string]T {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[string(v)] = v
	}
	return m
}

func parse[T ~string](table map[string]T, kind, s string) (T, error) {
	if v, ok := table[s]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownEnum, kind, s)
}

// ParseBodyType maps stored text to a BodyType.
func ParseBodyType(s string) (BodyType, error) { return parse(bodyTypes, "body type", s) }

// ParseTaskType maps stored text to a TaskType.
func ParseTaskType(s string) (TaskType, error) { return parse(taskTypes, "task type", s) }

// ParseBuildingType maps stored text to a BuildingType.
func ParseBuildingType(s string) (BuildingType, error) {
	return parse(buildingTypes, "building type", s)
}

// ParseColor maps stored text to a Color.
func ParseColor(s string) (Color, error) { return parse(colors, "color", s) }
