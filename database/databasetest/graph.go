// Package databasetest provides an in-memory directory graph that answers the
// named statements of a database.QuerySet. It is used by tests of the
// packages built on top of database.Executor.
package databasetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sdstartups/startupmap-backend/database"
)

type locationKey struct {
	Address, City, State, ZipCode string
}

type location struct {
	key                 locationKey
	latitude, longitude float64
}

type company struct {
	props map[string]interface{}
	has   map[locationKey]bool
	had   map[locationKey]bool
	tags  map[string]bool
}

type state struct {
	companies map[string]*company
	locations map[locationKey]*location
	tags      map[string]bool
}

// Graph is a thread-safe in-memory graph. It implements database.Executor and
// database.Transactor; a failed transaction restores the state it started from.
type Graph struct {
	mu    sync.Mutex
	state state

	// Calls records the name of every executed statement in order.
	Calls []string

	// FailOn makes the named statement return the given error.
	FailOn map[string]error

	// Malformed rows are appended to every list_companies and list_tags result.
	Malformed []map[string]interface{}

	Transactions int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		state: state{
			companies: map[string]*company{},
			locations: map[locationKey]*location{},
			tags:      map[string]bool{},
		},
		FailOn: map[string]error{},
	}
}

// Execute interprets q by its name.
func (g *Graph) Execute(_ context.Context, q database.Query, params map[string]interface{}) (*database.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.execute(q, params)
}

// InTransaction runs fn against the graph and rolls every change back when fn fails.
func (g *Graph) InTransaction(ctx context.Context, fn func(ctx context.Context, tx database.Executor) error) error {
	g.mu.Lock()
	snapshot := g.state.clone()
	g.Transactions++
	g.mu.Unlock()

	if err := fn(ctx, g); err != nil {
		g.mu.Lock()
		g.state = snapshot
		g.mu.Unlock()
		return err
	}
	return nil
}

// CompanyCount returns the number of Company nodes.
func (g *Graph) CompanyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.state.companies)
}

// LocationCount returns the number of Location nodes.
func (g *Graph) LocationCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.state.locations)
}

// TagCount returns the number of Tag nodes.
func (g *Graph) TagCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.state.tags)
}

// OfficeCounts returns how many HAS_OFFICE and HAD_OFFICE edges leave the company.
func (g *Graph) OfficeCounts(uuid string) (current, former int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.state.companies[uuid]
	if !ok {
		return 0, 0
	}
	return len(c.has), len(c.had)
}

// CallCount returns how many times the named statement ran.
func (g *Graph) CallCount(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// SeedCompany adds a company without going through any statement. Office may
// be nil for a company that has no current office.
func (g *Graph) SeedCompany(props map[string]interface{}, office *[4]string, lat, lon float64, tags ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := &company{props: map[string]interface{}{}, has: map[locationKey]bool{}, had: map[locationKey]bool{}, tags: map[string]bool{}}
	for k, v := range props {
		c.props[k] = v
	}
	if office != nil {
		key := locationKey{office[0], office[1], office[2], office[3]}
		if _, ok := g.state.locations[key]; !ok {
			g.state.locations[key] = &location{key: key, latitude: lat, longitude: lon}
		}
		c.has[key] = true
	}
	for _, t := range tags {
		g.state.tags[t] = true
		c.tags[t] = true
	}
	g.state.companies[fmt.Sprint(c.props["UUID"])] = c
}

func (s state) clone() state {
	out := state{
		companies: make(map[string]*company, len(s.companies)),
		locations: make(map[locationKey]*location, len(s.locations)),
		tags:      make(map[string]bool, len(s.tags)),
	}
	for k, c := range s.companies {
		cc := &company{props: map[string]interface{}{}, has: map[locationKey]bool{}, had: map[locationKey]bool{}, tags: map[string]bool{}}
		for pk, pv := range c.props {
			cc.props[pk] = pv
		}
		for lk := range c.has {
			cc.has[lk] = true
		}
		for lk := range c.had {
			cc.had[lk] = true
		}
		for t := range c.tags {
			cc.tags[t] = true
		}
		out.companies[k] = cc
	}
	for k, l := range s.locations {
		ll := *l
		out.locations[k] = &ll
	}
	for t := range s.tags {
		out.tags[t] = true
	}
	return out
}

func (g *Graph) execute(q database.Query, params map[string]interface{}) (*database.Result, error) {
	g.Calls = append(g.Calls, q.Name)
	if err, ok := g.FailOn[q.Name]; ok {
		return nil, fmt.Errorf("%s: %w", q.Name, err)
	}

	s := &g.state
	res := &database.Result{Records: []map[string]interface{}{}}

	switch q.Name {
	case "list_tags":
		used := map[string]bool{}
		for _, c := range s.companies {
			for t := range c.tags {
				used[t] = true
			}
		}
		for _, t := range sortedKeys(used) {
			res.Records = append(res.Records, map[string]interface{}{"Name": t})
		}
		res.Records = append(res.Records, g.Malformed...)

	case "list_companies":
		filter := stringsParam(params, "tags")
		for _, id := range s.sortedCompanyIDs() {
			c := s.companies[id]
			if len(c.has) == 0 {
				continue
			}
			if len(filter) > 0 && !c.taggedWithAny(filter) {
				continue
			}
			// one row per current office, as a graph join would produce
			for _, key := range sortedLocationKeys(c.has) {
				res.Records = append(res.Records, s.companyRow(c, &key))
			}
		}
		res.Records = append(res.Records, g.Malformed...)

	case "find_company_by_name":
		name := stringParam(params, "name")
		for _, id := range s.sortedCompanyIDs() {
			c := s.companies[id]
			if c.props["Name"] == name {
				res.Records = append(res.Records, s.companyRow(c, c.firstOffice()))
				break
			}
		}

	case "find_company_by_uuid":
		if c, ok := s.companies[stringParam(params, "uuid")]; ok {
			res.Records = append(res.Records, s.companyRow(c, c.firstOffice()))
		}

	case "offices":
		if c, ok := s.companies[stringParam(params, "uuid")]; ok {
			for _, key := range sortedLocationKeys(c.had) {
				row := s.locationRow(key)
				row["Relationship"] = database.RelHadOffice
				res.Records = append(res.Records, row)
			}
			for _, key := range sortedLocationKeys(c.has) {
				row := s.locationRow(key)
				row["Relationship"] = database.RelHasOffice
				res.Records = append(res.Records, row)
			}
		}

	case "find_location":
		key := locationParam(params)
		if _, ok := s.locations[key]; ok {
			res.Records = append(res.Records, s.locationRow(key))
		}

	case "merge_location":
		key := locationParam(params)
		if _, ok := s.locations[key]; !ok {
			s.locations[key] = &location{key: key, latitude: floatParam(params, "lat"), longitude: floatParam(params, "lon")}
			res.Summary.NodesCreated = 1
		}
		res.Records = append(res.Records, s.locationRow(key))

	case "merge_company_by_url", "merge_company_by_uuid":
		var existing *company
		if q.Name == "merge_company_by_url" {
			for _, id := range s.sortedCompanyIDs() {
				if s.companies[id].props["Url"] == params["url"] {
					existing = s.companies[id]
					break
				}
			}
		} else {
			existing = s.companies[stringParam(params, "uuid")]
		}
		if existing == nil {
			existing = &company{
				props: map[string]interface{}{
					"UUID":        params["uuid"],
					"Name":        params["name"],
					"Description": params["description"],
					"StartupYear": toInt64(params["startupYear"]),
					"Url":         params["url"],
					"LinkedInUrl": params["linkedInUrl"],
					"Logo":        params["logo"],
				},
				has:  map[locationKey]bool{},
				had:  map[locationKey]bool{},
				tags: map[string]bool{},
			}
			s.companies[stringParam(params, "uuid")] = existing
			res.Summary.NodesCreated = 1
		}
		res.Records = append(res.Records, map[string]interface{}{"UUID": existing.props["UUID"]})

	case "attach_office":
		c, ok := s.companies[stringParam(params, "uuid")]
		key := locationParam(params)
		if _, found := s.locations[key]; ok && found {
			if !c.has[key] {
				c.has[key] = true
				res.Summary.RelationshipsCreated = 1
			}
			res.Records = append(res.Records, map[string]interface{}{"UUID": c.props["UUID"]})
		}

	case "supersede_offices":
		if c, ok := s.companies[stringParam(params, "uuid")]; ok {
			for _, key := range sortedLocationKeys(c.has) {
				c.had[key] = true
				delete(c.has, key)
				res.Records = append(res.Records, s.locationRow(key))
			}
		}

	case "update_company":
		if c, ok := s.companies[stringParam(params, "uuid")]; ok {
			c.props["Url"] = params["url"]
			c.props["Description"] = params["description"]
			c.props["StartupYear"] = toInt64(params["startupYear"])
			c.props["LinkedInUrl"] = params["linkedInUrl"]
			c.props["Name"] = params["name"]
			c.props["Logo"] = params["logo"]
			res.Summary.PropertiesSet = 6
			res.Records = append(res.Records, map[string]interface{}{"UUID": c.props["UUID"]})
		}

	case "merge_tags":
		for _, t := range stringsParam(params, "tags") {
			if !s.tags[t] {
				s.tags[t] = true
				res.Summary.NodesCreated++
			}
			res.Records = append(res.Records, map[string]interface{}{"Name": t})
		}

	case "clear_tags":
		if c, ok := s.companies[stringParam(params, "uuid")]; ok {
			res.Summary.RelationshipsDeleted = len(c.tags)
			c.tags = map[string]bool{}
		}

	case "attach_tags":
		if c, ok := s.companies[stringParam(params, "uuid")]; ok {
			for _, t := range stringsParam(params, "tags") {
				if !s.tags[t] {
					continue
				}
				c.tags[t] = true
				res.Records = append(res.Records, map[string]interface{}{"Name": t})
			}
		}

	case "delete_company":
		id := stringParam(params, "uuid")
		if c, ok := s.companies[id]; ok {
			delete(s.companies, id)
			res.Summary.NodesDeleted = 1
			res.Records = append(res.Records, map[string]interface{}{"UUID": c.props["UUID"]})
		}

	default:
		return nil, fmt.Errorf("%s: statement not supported by the in-memory graph", q.Name)
	}

	if len(res.Records) > 0 {
		for k := range res.Records[0] {
			res.Keys = append(res.Keys, k)
		}
		sort.Strings(res.Keys)
	}
	return res, nil
}

func (s *state) sortedCompanyIDs() []string {
	ids := make([]string, 0, len(s.companies))
	for id := range s.companies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *state) companyRow(c *company, office *locationKey) map[string]interface{} {
	row := map[string]interface{}{}
	for k, v := range c.props {
		row[k] = v
	}

	tags := make([]interface{}, 0, len(c.tags))
	for _, t := range sortedKeys(c.tags) {
		tags = append(tags, t)
	}
	row["Tags"] = tags

	if office != nil {
		l := s.locations[*office]
		row["Address"] = l.key.Address
		row["City"] = l.key.City
		row["State"] = l.key.State
		row["ZipCode"] = l.key.ZipCode
		row["Lat"] = l.latitude
		row["Lon"] = l.longitude
	} else {
		for _, k := range []string{"Address", "City", "State", "ZipCode", "Lat", "Lon"} {
			row[k] = nil
		}
	}
	return row
}

func (s *state) locationRow(key locationKey) map[string]interface{} {
	l := s.locations[key]
	return map[string]interface{}{
		"Address":   key.Address,
		"City":      key.City,
		"State":     key.State,
		"ZipCode":   key.ZipCode,
		"Latitude":  l.latitude,
		"Longitude": l.longitude,
	}
}

func (c *company) taggedWithAny(filter []string) bool {
	for _, t := range filter {
		if c.tags[t] {
			return true
		}
	}
	return false
}

func (c *company) firstOffice() *locationKey {
	keys := sortedLocationKeys(c.has)
	if len(keys) == 0 {
		return nil
	}
	return &keys[0]
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedLocationKeys(m map[locationKey]bool) []locationKey {
	out := make([]locationKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return fmt.Sprint(out[i]) < fmt.Sprint(out[j])
	})
	return out
}

func locationParam(params map[string]interface{}) locationKey {
	return locationKey{
		Address: stringParam(params, "address"),
		City:    stringParam(params, "city"),
		State:   stringParam(params, "state"),
		ZipCode: stringParam(params, "zip"),
	}
}

func stringParam(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}

func floatParam(params map[string]interface{}, key string) float64 {
	f, _ := params[key].(float64)
	return f
}

func stringsParam(params map[string]interface{}, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
