// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes TravelMate tools for LLM integration via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/planner"
	"github.com/starford/travelmate/internal/search"
)

const contractURI = "travelmate://trip-format"

// Server wraps the MCP server with TravelMate tools.
type Server struct {
	mcp *server.MCPServer
	svc *planner.Service
}

// New creates a new MCP server with all TravelMate tools registered.
func New(svc *planner.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"TravelMate",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_trips",
		mcp.WithDescription("List trips, optionally only those with the given status."),
		mcp.WithString("status", mcp.Description("Status filter"),
			mcp.Enum("all", "planning", "active", "completed")),
	), s.listTrips)

	s.mcp.AddTool(mcp.NewTool("get_trip",
		mcp.WithDescription("Read a single trip by id, including its length in nights."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Trip id")),
	), s.getTrip)

	s.mcp.AddTool(mcp.NewTool("add_trip",
		mcp.WithDescription("Create a new trip. Dates are YYYY-MM-DD. "+
			"The destination is resolved against the city catalogue when possible. "+
			"Read the contract first via the get_trip_contract tool or the "+contractURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Trip title")),
		mcp.WithString("destination", mcp.Required(), mcp.Description("Destination city name")),
		mcp.WithString("startDate", mcp.Required(), mcp.Description("First day (YYYY-MM-DD)")),
		mcp.WithString("endDate", mcp.Required(), mcp.Description("Last day (YYYY-MM-DD)")),
		mcp.WithNumber("budget", mcp.Description("Planned budget")),
		mcp.WithString("currency", mcp.Description("ISO currency code (defaults to the preferred currency)")),
		mcp.WithString("status", mcp.Description("Initial status"),
			mcp.Enum("planning", "active", "completed")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
	), s.addTrip)

	s.mcp.AddTool(mcp.NewTool("update_trip_status",
		mcp.WithDescription("Move a trip to another lifecycle stage."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Trip id")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status"),
			mcp.Enum("planning", "active", "completed")),
	), s.updateTripStatus)

	s.mcp.AddTool(mcp.NewTool("delete_trip",
		mcp.WithDescription("Delete a trip by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Trip id")),
	), s.deleteTrip)

	s.mcp.AddTool(mcp.NewTool("search_flights",
		mcp.WithDescription("Search flight offers between two cities."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Departure city")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Arrival city")),
		mcp.WithString("date", mcp.Description("Departure date (YYYY-MM-DD)")),
		mcp.WithString("sort", mcp.Description("Sort order"),
			mcp.Enum("price-asc", "price-desc", "duration-asc", "departure-asc")),
	), s.searchFlights)

	s.mcp.AddTool(mcp.NewTool("search_hotels",
		mcp.WithDescription("Search hotels in a city with optional price band and rating filters."),
		mcp.WithString("location", mcp.Required(), mcp.Description("City")),
		mcp.WithString("checkIn", mcp.Description("Check-in date (YYYY-MM-DD)")),
		mcp.WithString("checkOut", mcp.Description("Check-out date (YYYY-MM-DD)")),
		mcp.WithString("priceRange", mcp.Description("Nightly price band"),
			mcp.Enum("all", "budget", "mid", "luxury")),
		mcp.WithNumber("minRating", mcp.Description("Minimum rating (0-5)")),
	), s.searchHotels)

	s.mcp.AddTool(mcp.NewTool("export_data",
		mcp.WithDescription("Export all trips and settings as one JSON document."),
	), s.exportData)

	s.mcp.AddTool(mcp.NewTool("get_trip_contract",
		mcp.WithDescription("Returns the trip record contract. "+
			"Call this before creating trips to ensure correct field values."),
	), s.getTripContract)

	// Resource: trip format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Trip Format Contract",
			mcp.WithResourceDescription("Fields, formats and lifecycle of a trip record."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTripFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listTrips(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")
	if status != "" && status != "all" && !models.TripStatus(status).Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status: %s", status)), nil
	}
	trips := s.svc.Trips().Filter(status)
	if len(trips) == 0 {
		return mcp.NewToolResultText("no trips found"), nil
	}
	return jsonResult(trips)
}

func (s *Server) getTrip(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	trip, ok := s.svc.Trips().ByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(tripDetail{Trip: trip, Nights: trip.Nights()})
}

// tripDetail is the get_trip payload: the stored trip plus its length.
type tripDetail struct {
	models.Trip
	Nights int `json:"nights"`
}

func (s *Server) addTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dest, err := req.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := requireDate(req, "startDate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := requireDate(req, "endDate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := models.TripStatus(req.GetString("status", string(models.TripPlanning)))
	if !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status: %s", status)), nil
	}
	currency := req.GetString("currency", "")
	if currency == "" {
		currency = s.svc.Preferences().Get().Currency
	}

	trip, err := s.svc.Trips().Add(models.TripDraft{
		Title:       strings.TrimSpace(title),
		Destination: s.resolveDestination(ctx, dest),
		StartDate:   start,
		EndDate:     end,
		Budget:      req.GetFloat("budget", 0),
		Currency:    strings.ToUpper(currency),
		Status:      status,
		Notes:       req.GetString("notes", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(trip)
}

// resolveDestination picks the first catalogue city whose name matches name
// exactly, falling back to a bare location.
func (s *Server) resolveDestination(ctx context.Context, name string) models.Location {
	name = strings.TrimSpace(name)
	cities, err := s.svc.SearchCities(ctx, name)
	if err == nil {
		for _, c := range cities {
			if strings.EqualFold(c.Name, name) {
				return c
			}
		}
	}
	return models.Location{Name: name}
}

func (s *Server) updateTripStatus(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := models.TripStatus(raw)
	if !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status: %s", raw)), nil
	}

	store := s.svc.Trips()
	if _, ok := store.ByID(id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err := store.Update(id, models.TripPatch{Status: &status}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s -> %s", id, status)), nil
}

func (s *Server) deleteTrip(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	store := s.svc.Trips()
	if _, ok := store.ByID(id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	store.Delete(id)
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) searchFlights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := search.ParseSortKey(req.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	flights, err := s.svc.SearchFlights(ctx, planner.FlightQuery{
		From: from, To: to, Date: req.GetString("date", ""), Sort: key,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(flights)
}

func (s *Server) searchHotels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := req.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	band, err := search.ParsePriceRange(req.GetString("priceRange", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hotels, err := s.svc.SearchHotels(ctx, planner.HotelQuery{
		Location: location,
		CheckIn:  req.GetString("checkIn", ""),
		CheckOut: req.GetString("checkOut", ""),
		Filter:   search.HotelFilter{PriceRange: band, MinRating: req.GetFloat("minRating", 0)},
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hotels)
}

func (s *Server) exportData(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := s.svc.Export().Write(&buf); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) getTripContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TripFormatContract), nil
}

func (s *Server) readTripFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     TripFormatContract,
		},
	}, nil
}

func requireDate(req mcp.CallToolRequest, key string) (time.Time, error) {
	raw, err := req.RequireString(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, raw)
	}
	return t, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
