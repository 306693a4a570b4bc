// Package neo4j persists mindmap outlines as a heading tree so they can be
// browsed and linked to their source documents.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// OutlineNode is one markdown header. ParentPosition is -1 for top-level
// headers.
type OutlineNode struct {
	Position       int
	Level          int
	Title          string
	ParentPosition int
}

type runFunc func(ctx context.Context, cypher string, params map[string]any) error

type Store struct {
	driver neo4j.DriverWithContext
	run    runFunc
}

func New(ctx context.Context, uri, username, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	s := &Store{driver: driver}
	s.run = func(ctx context.Context, cypher string, params map[string]any) error {
		opts := []neo4j.ExecuteQueryConfigurationOption{}
		if database != "" {
			opts = append(opts, neo4j.ExecuteQueryWithDatabase(database))
		}
		_, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, opts...)
		return err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

const createMindmapCypher = `
MERGE (u:User {id: $user_id})
CREATE (m:Mindmap {id: $mindmap_id, created_at: datetime()})
MERGE (u)-[:OWNS]->(m)
WITH m
UNWIND $document_ids AS doc_id
MERGE (d:Document {id: doc_id})
MERGE (m)-[:COVERS]->(d)
`

const createHeadingsCypher = `
MATCH (m:Mindmap {id: $mindmap_id})
UNWIND $headings AS h
CREATE (n:Heading {id: h.id, title: h.title, level: h.level, position: h.position})
CREATE (m)-[:HAS_HEADING]->(n)
WITH n, h
WHERE h.parent_id IS NOT NULL
MATCH (p:Heading {id: h.parent_id})
CREATE (p)-[:PARENT_OF]->(n)
`

// SaveOutline writes one Mindmap node, its document links and the heading
// tree. Headings are created in position order so parents exist first.
func (s *Store) SaveOutline(ctx context.Context, userID string, documentIDs []string, markdown string) error {
	mindmapID := uuid.NewString()
	if err := s.run(ctx, createMindmapCypher, map[string]any{
		"user_id":      userID,
		"mindmap_id":   mindmapID,
		"document_ids": documentIDs,
	}); err != nil {
		return fmt.Errorf("neo4j create mindmap: %w", err)
	}

	nodes := FlattenOutline(markdown)
	if len(nodes) == 0 {
		return nil
	}
	if err := s.run(ctx, createHeadingsCypher, map[string]any{
		"mindmap_id": mindmapID,
		"headings":   headingParams(mindmapID, nodes),
	}); err != nil {
		return fmt.Errorf("neo4j create headings: %w", err)
	}
	return nil
}

func headingParams(mindmapID string, nodes []OutlineNode) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		var parentID any
		if n.ParentPosition >= 0 {
			parentID = fmt.Sprintf("%s-%d", mindmapID, n.ParentPosition)
		}
		out = append(out, map[string]any{
			"id":        fmt.Sprintf("%s-%d", mindmapID, n.Position),
			"title":     n.Title,
			"level":     n.Level,
			"position":  n.Position,
			"parent_id": parentID,
		})
	}
	return out
}

// FlattenOutline parses markdown header lines into nodes. Each node's parent
// is the closest preceding header with a smaller level.
func FlattenOutline(markdown string) []OutlineNode {
	nodes := make([]OutlineNode, 0)
	stack := make([]OutlineNode, 0)
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		level := len(line) - len(strings.TrimLeft(line, "#"))
		title := strings.TrimSpace(line[level:])
		if title == "" {
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1].Position
		}
		node := OutlineNode{Position: len(nodes), Level: level, Title: title, ParentPosition: parent}
		nodes = append(nodes, node)
		stack = append(stack, node)
	}
	return nodes
}
