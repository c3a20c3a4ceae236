// Package routes orders a contractor's daily jobs with a nearest-neighbour tour
package routes

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// EarthRadiusKm is the mean earth radius used by Distance
const EarthRadiusKm = 6371.0

// Cost model for the route summary
const (
	FuelCostPerKm = 0.15
	AverageKmh    = 40.0
)

// ErrTooFewJobs is returned when fewer than two jobs carry a location
var ErrTooFewJobs = errors.New("need at least 2 jobs with locations to optimize route")

// TooFewJobsMessage is the user-facing text for ErrTooFewJobs
const TooFewJobsMessage = "Need at least 2 jobs with locations to optimize route"

// Point is a WGS84 coordinate in degrees
type Point struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

// Job is one scheduled visit
type Job struct {
	Client   string `yaml:"client" json:"client"`
	Title    string `yaml:"title" json:"title"`
	Location *Point `yaml:"location,omitempty" json:"location,omitempty"`
}

// Plan is an ordered tour
type Plan struct {
	Stops   []Job
	TotalKm float64
}

// Distance returns the haversine distance between a and b in kilometres
func Distance(a, b Point) float64 {
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Optimize visits the located jobs greedily, always driving to the closest
// unvisited one. Jobs without a location are skipped. A nil start begins at
// the first located job. Ties go to the earlier job.
func Optimize(jobs []Job, start *Point) (Plan, error) {
	unvisited := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Location != nil {
			unvisited = append(unvisited, j)
		}
	}
	if len(unvisited) < 2 {
		return Plan{}, ErrTooFewJobs
	}

	current := *unvisited[0].Location
	if start != nil {
		current = *start
	}

	plan := Plan{Stops: make([]Job, 0, len(unvisited))}
	for len(unvisited) > 0 {
		best, bestDist := -1, math.Inf(1)
		for i, j := range unvisited {
			if d := Distance(current, *j.Location); d < bestDist {
				best, bestDist = i, d
			}
		}
		next := unvisited[best]
		plan.Stops = append(plan.Stops, next)
		plan.TotalKm += bestDist
		current = *next.Location
		unvisited = append(unvisited[:best], unvisited[best+1:]...)
	}
	return plan, nil
}

// FuelCost estimates fuel spend in pounds
func (p Plan) FuelCost() float64 {
	return p.TotalKm * FuelCostPerKm
}

// DriveMinutes estimates drive time at the average speed
func (p Plan) DriveMinutes() int {
	return int(math.Round(p.TotalKm / AverageKmh * 60))
}

// Summary renders the plan for a terminal
func (p Plan) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Distance: %.1fkm\n", p.TotalKm)
	fmt.Fprintf(&b, "Est. Fuel Cost: £%.2f\n", p.FuelCost())
	fmt.Fprintf(&b, "Drive Time: %dmin\n", p.DriveMinutes())
	fmt.Fprintf(&b, "Stops: %d\n", len(p.Stops))
	for i, s := range p.Stops {
		fmt.Fprintf(&b, "\n%d. %s\n   %s", i+1, s.Client, s.Title)
	}
	return b.String()
}

type jobsFile struct {
	Start *Point `yaml:"start"`
	Jobs  []Job  `yaml:"jobs"`
}

// LoadJobs reads a YAML job list with an optional start point
func LoadJobs(r io.Reader) ([]Job, *Point, error) {
	var f jobsFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse jobs: %w", err)
	}
	return f.Jobs, f.Start, nil
}
