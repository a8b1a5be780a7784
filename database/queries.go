package database

// QuerySet holds one statement per graph step. Every dialect binds the same
// parameter names and returns the same columns, so the synchronizer does not
// care which backend it talks to.
//
// Parameters:
//   - address, city, state, zip: the Location identity tuple
//   - lat, lon: coordinates stored on Location creation
//   - uuid, name, description, startupYear, url, linkedInUrl, logo: Company fields
//   - tags: list of tag names
//
// Company rows carry UUID, Name, Description, StartupYear, Url, LinkedInUrl,
// Logo, Lat, Lon, Address, City, State, ZipCode and Tags.
type QuerySet struct {
	Dialect string

	ListTags          Query
	ListCompanies     Query
	FindCompanyByName Query
	FindCompanyByUUID Query
	Offices           Query

	FindLocation       Query
	MergeLocation      Query
	MergeCompanyByURL  Query
	MergeCompanyByUUID Query
	AttachOffice       Query
	SupersedeOffices   Query
	UpdateCompany      Query
	MergeTags          Query
	ClearTags          Query
	AttachTags         Query
	DeleteCompany      Query

	// Schema statements run once at startup. Empty for backends that manage
	// their schema through an API.
	Schema []Query
}

// Statements lists every step statement of the set, Schema excluded.
func (qs QuerySet) Statements() []Query {
	return []Query{
		qs.ListTags, qs.ListCompanies, qs.FindCompanyByName, qs.FindCompanyByUUID, qs.Offices,
		qs.FindLocation, qs.MergeLocation, qs.MergeCompanyByURL, qs.MergeCompanyByUUID,
		qs.AttachOffice, qs.SupersedeOffices, qs.UpdateCompany, qs.MergeTags, qs.ClearTags,
		qs.AttachTags, qs.DeleteCompany,
	}
}

// Labels and relationship types of the directory graph. In ArangoDB they are
// the document and edge collection names.
const (
	LabelCompany  = "Company"
	LabelLocation = "Location"
	LabelTag      = "Tag"

	RelHasOffice = "HAS_OFFICE"
	RelHadOffice = "HAD_OFFICE"
	RelTagged    = "TAGGED"
)

const cypherCompanyColumns = `
	c.UUID AS UUID, c.Name AS Name, c.Description AS Description, c.StartupYear AS StartupYear,
	c.Url AS Url, c.LinkedInUrl AS LinkedInUrl, c.Logo AS Logo,
	l.Latitude AS Lat, l.Longitude AS Lon,
	l.Address AS Address, l.City AS City, l.State AS State, l.ZipCode AS ZipCode,
	Tags`

const cypherLocationColumns = `
	l.Address AS Address, l.City AS City, l.State AS State, l.ZipCode AS ZipCode,
	l.Latitude AS Latitude, l.Longitude AS Longitude`

// CypherQueries is the Neo4j dialect.
var CypherQueries = QuerySet{
	Dialect: "cypher",

	ListTags: Query{Name: "list_tags", Text: `
		MATCH (:Company)-[:TAGGED]->(t:Tag)
		RETURN DISTINCT t.Name AS Name
		ORDER BY Name`},

	ListCompanies: Query{Name: "list_companies", Text: `
		MATCH (l:Location)<-[:HAS_OFFICE]-(c:Company)
		OPTIONAL MATCH (c)-[:TAGGED]->(t:Tag)
		WITH c, l, collect(DISTINCT t.Name) AS Tags
		WHERE size($tags) = 0 OR any(tag IN Tags WHERE tag IN $tags)
		RETURN` + cypherCompanyColumns + `
		ORDER BY Name, UUID`},

	FindCompanyByName: Query{Name: "find_company_by_name", Text: `
		MATCH (c:Company {Name: $name})
		OPTIONAL MATCH (c)-[:HAS_OFFICE]->(l:Location)
		OPTIONAL MATCH (c)-[:TAGGED]->(t:Tag)
		WITH c, l, collect(DISTINCT t.Name) AS Tags
		RETURN` + cypherCompanyColumns + `
		ORDER BY UUID
		LIMIT 1`},

	FindCompanyByUUID: Query{Name: "find_company_by_uuid", Text: `
		MATCH (c:Company {UUID: $uuid})
		OPTIONAL MATCH (c)-[:HAS_OFFICE]->(l:Location)
		OPTIONAL MATCH (c)-[:TAGGED]->(t:Tag)
		WITH c, l, collect(DISTINCT t.Name) AS Tags
		RETURN` + cypherCompanyColumns + `
		LIMIT 1`},

	Offices: Query{Name: "offices", Text: `
		MATCH (:Company {UUID: $uuid})-[r:HAS_OFFICE|HAD_OFFICE]->(l:Location)
		RETURN type(r) AS Relationship,` + cypherLocationColumns + `
		ORDER BY Relationship, Address`},

	FindLocation: Query{Name: "find_location", Text: `
		MATCH (l:Location {Address: $address, City: $city, State: $state, ZipCode: $zip})
		RETURN` + cypherLocationColumns + `
		LIMIT 1`},

	MergeLocation: Query{Name: "merge_location", Text: `
		MERGE (l:Location {Address: $address, City: $city, State: $state, ZipCode: $zip})
		ON CREATE SET l.Latitude = $lat, l.Longitude = $lon
		RETURN` + cypherLocationColumns},

	MergeCompanyByURL: Query{Name: "merge_company_by_url", Text: `
		MERGE (c:Company {Url: $url})
		ON CREATE SET c.UUID = $uuid, c.Name = $name, c.Description = $description,
			c.StartupYear = $startupYear, c.LinkedInUrl = $linkedInUrl, c.Logo = $logo
		RETURN c.UUID AS UUID`},

	MergeCompanyByUUID: Query{Name: "merge_company_by_uuid", Text: `
		MERGE (c:Company {UUID: $uuid})
		ON CREATE SET c.Url = $url, c.Name = $name, c.Description = $description,
			c.StartupYear = $startupYear, c.LinkedInUrl = $linkedInUrl, c.Logo = $logo
		RETURN c.UUID AS UUID`},

	AttachOffice: Query{Name: "attach_office", Text: `
		MATCH (c:Company {UUID: $uuid})
		MATCH (l:Location {Address: $address, City: $city, State: $state, ZipCode: $zip})
		MERGE (c)-[:HAS_OFFICE]->(l)
		RETURN c.UUID AS UUID`},

	SupersedeOffices: Query{Name: "supersede_offices", Text: `
		MATCH (c:Company {UUID: $uuid})-[r:HAS_OFFICE]->(l:Location)
		MERGE (c)-[:HAD_OFFICE]->(l)
		DELETE r
		RETURN` + cypherLocationColumns},

	UpdateCompany: Query{Name: "update_company", Text: `
		MATCH (c:Company {UUID: $uuid})
		SET c.Url = $url, c.Description = $description, c.StartupYear = $startupYear,
			c.LinkedInUrl = $linkedInUrl, c.Name = $name, c.Logo = $logo
		RETURN c.UUID AS UUID`},

	MergeTags: Query{Name: "merge_tags", Text: `
		UNWIND $tags AS name
		MERGE (t:Tag {Name: name})
		RETURN t.Name AS Name`},

	ClearTags: Query{Name: "clear_tags", Text: `
		MATCH (:Company {UUID: $uuid})-[r:TAGGED]->(:Tag)
		DELETE r`},

	AttachTags: Query{Name: "attach_tags", Text: `
		MATCH (c:Company {UUID: $uuid})
		UNWIND $tags AS name
		MATCH (t:Tag {Name: name})
		MERGE (c)-[:TAGGED]->(t)
		RETURN t.Name AS Name`},

	DeleteCompany: Query{Name: "delete_company", Text: `
		MATCH (c:Company {UUID: $uuid})
		WITH c, c.UUID AS UUID
		DETACH DELETE c
		RETURN UUID`},

	Schema: []Query{
		{Name: "company_uuid_unique", Text: `CREATE CONSTRAINT company_uuid_unique IF NOT EXISTS FOR (c:Company) REQUIRE c.UUID IS UNIQUE`},
		{Name: "tag_name_unique", Text: `CREATE CONSTRAINT tag_name_unique IF NOT EXISTS FOR (t:Tag) REQUIRE t.Name IS UNIQUE`},
		{Name: "location_address_unique", Text: `CREATE CONSTRAINT location_address_unique IF NOT EXISTS FOR (l:Location) REQUIRE (l.Address, l.City, l.State, l.ZipCode) IS UNIQUE`},
		{Name: "company_url", Text: `CREATE INDEX company_url IF NOT EXISTS FOR (c:Company) ON (c.Url)`},
		{Name: "company_name", Text: `CREATE INDEX company_name IF NOT EXISTS FOR (c:Company) ON (c.Name)`},
	},
}

const aqlCompanyDocument = `{
		UUID: c.UUID, Name: c.Name, Description: c.Description, StartupYear: c.StartupYear,
		Url: c.Url, LinkedInUrl: c.LinkedInUrl, Logo: c.Logo,
		Lat: office.Latitude, Lon: office.Longitude,
		Address: office.Address, City: office.City, State: office.State, ZipCode: office.ZipCode,
		Tags: tags
	}`

const aqlCompanyJoins = `
		LET office = FIRST(FOR l IN 1..1 OUTBOUND c HAS_OFFICE SORT l._key RETURN l)
		LET tags = UNIQUE(FOR t IN 1..1 OUTBOUND c TAGGED SORT t.Name RETURN t.Name)`

// aqlLocationDocument projects the Location bound to v into the common columns.
func aqlLocationDocument(v string) string {
	return `{
		Address: ` + v + `.Address, City: ` + v + `.City, State: ` + v + `.State, ZipCode: ` + v + `.ZipCode,
		Latitude: ` + v + `.Latitude, Longitude: ` + v + `.Longitude
	}`
}

const aqlLocationFilter = `l.Address == @address AND l.City == @city AND l.State == @state AND l.ZipCode == @zip`

// AQLQueries is the ArangoDB dialect. Company documents use the UUID as _key.
var AQLQueries = QuerySet{
	Dialect: "aql",

	ListTags: Query{Name: "list_tags", Text: `
		FOR t IN Tag
			FILTER LENGTH(FOR e IN TAGGED FILTER e._to == t._id LIMIT 1 RETURN 1) > 0
			SORT t.Name
			RETURN { Name: t.Name }`},

	ListCompanies: Query{Name: "list_companies", Text: `
		FOR c IN Company` + aqlCompanyJoins + `
			FILTER office != null
			FILTER LENGTH(@tags) == 0 OR LENGTH(INTERSECTION(tags, @tags)) > 0
			SORT c.Name, c.UUID
			RETURN ` + aqlCompanyDocument},

	FindCompanyByName: Query{Name: "find_company_by_name", Text: `
		FOR c IN Company
			FILTER c.Name == @name
			SORT c.UUID
			LIMIT 1` + aqlCompanyJoins + `
			RETURN ` + aqlCompanyDocument},

	FindCompanyByUUID: Query{Name: "find_company_by_uuid", Text: `
		FOR c IN Company
			FILTER c._key == @uuid
			LIMIT 1` + aqlCompanyJoins + `
			RETURN ` + aqlCompanyDocument},

	Offices: Query{Name: "offices", Text: `
		LET id = CONCAT("Company/", @uuid)
		LET current = (FOR l IN 1..1 OUTBOUND id HAS_OFFICE RETURN MERGE(` + aqlLocationDocument("l") + `, { Relationship: "HAS_OFFICE" }))
		LET former = (FOR l IN 1..1 OUTBOUND id HAD_OFFICE RETURN MERGE(` + aqlLocationDocument("l") + `, { Relationship: "HAD_OFFICE" }))
		FOR o IN UNION(current, former)
			SORT o.Relationship, o.Address
			RETURN o`},

	FindLocation: Query{Name: "find_location", Text: `
		FOR l IN Location
			FILTER ` + aqlLocationFilter + `
			LIMIT 1
			RETURN ` + aqlLocationDocument("l")},

	MergeLocation: Query{Name: "merge_location", Text: `
		UPSERT { Address: @address, City: @city, State: @state, ZipCode: @zip }
		INSERT { Address: @address, City: @city, State: @state, ZipCode: @zip, Latitude: @lat, Longitude: @lon }
		UPDATE {}
		IN Location
		RETURN ` + aqlLocationDocument("NEW")},

	MergeCompanyByURL: Query{Name: "merge_company_by_url", Text: `
		UPSERT { Url: @url }
		INSERT {
			_key: @uuid, UUID: @uuid, Name: @name, Description: @description, StartupYear: @startupYear,
			Url: @url, LinkedInUrl: @linkedInUrl, Logo: @logo
		}
		UPDATE {}
		IN Company
		RETURN { UUID: NEW.UUID }`},

	MergeCompanyByUUID: Query{Name: "merge_company_by_uuid", Text: `
		UPSERT { _key: @uuid }
		INSERT {
			_key: @uuid, UUID: @uuid, Name: @name, Description: @description, StartupYear: @startupYear,
			Url: @url, LinkedInUrl: @linkedInUrl, Logo: @logo
		}
		UPDATE {}
		IN Company
		RETURN { UUID: NEW.UUID }`},

	AttachOffice: Query{Name: "attach_office", Text: `
		LET c = DOCUMENT("Company", @uuid)
		LET loc = FIRST(FOR l IN Location FILTER ` + aqlLocationFilter + ` LIMIT 1 RETURN l)
		FILTER c != null AND loc != null
		UPSERT { _from: c._id, _to: loc._id }
		INSERT { _from: c._id, _to: loc._id }
		UPDATE {}
		IN HAS_OFFICE
		RETURN { UUID: c.UUID }`},

	SupersedeOffices: Query{Name: "supersede_offices", Text: `
		FOR e IN HAS_OFFICE
			FILTER e._from == CONCAT("Company/", @uuid)
			UPSERT { _from: e._from, _to: e._to }
			INSERT { _from: e._from, _to: e._to }
			UPDATE {}
			IN HAD_OFFICE
			REMOVE e IN HAS_OFFICE
			RETURN ` + aqlLocationDocument("DOCUMENT(e._to)")},

	UpdateCompany: Query{Name: "update_company", Text: `
		FOR c IN Company
			FILTER c._key == @uuid
			UPDATE c WITH {
				Url: @url, Description: @description, StartupYear: @startupYear,
				LinkedInUrl: @linkedInUrl, Name: @name, Logo: @logo
			} IN Company
			RETURN { UUID: NEW.UUID }`},

	MergeTags: Query{Name: "merge_tags", Text: `
		FOR name IN @tags
			UPSERT { Name: name }
			INSERT { Name: name }
			UPDATE {}
			IN Tag
			RETURN { Name: NEW.Name }`},

	ClearTags: Query{Name: "clear_tags", Text: `
		FOR e IN TAGGED
			FILTER e._from == CONCAT("Company/", @uuid)
			REMOVE e IN TAGGED`},

	AttachTags: Query{Name: "attach_tags", Text: `
		LET c = DOCUMENT("Company", @uuid)
		FILTER c != null
		FOR name IN @tags
			FOR t IN Tag
				FILTER t.Name == name
				UPSERT { _from: c._id, _to: t._id }
				INSERT { _from: c._id, _to: t._id }
				UPDATE {}
				IN TAGGED
				RETURN { Name: t.Name }`},

	DeleteCompany: Query{Name: "delete_company", Text: `
		LET id = CONCAT("Company/", @uuid)
		LET offices = (FOR e IN HAS_OFFICE FILTER e._from == id REMOVE e IN HAS_OFFICE RETURN 1)
		LET former = (FOR e IN HAD_OFFICE FILTER e._from == id REMOVE e IN HAD_OFFICE RETURN 1)
		LET tagged = (FOR e IN TAGGED FILTER e._from == id REMOVE e IN TAGGED RETURN 1)
		FOR c IN Company
			FILTER c._key == @uuid
			REMOVE c IN Company
			RETURN { UUID: OLD.UUID }`},
}
