package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
)

type EdgeType string

const (
	EdgeViewed EdgeType = "VIEWED"
	EdgeBooked EdgeType = "BOOKED"
	EdgeRated  EdgeType = "RATED"
)

// GraphEdge is a (User)-[type]->(Hotel) relationship.
type GraphEdge struct {
	UserID     uuid.UUID
	HotelID    uuid.UUID
	Type       EdgeType
	Properties map[string]interface{}
}

// EdgeWriter persists a batch of edges.
type EdgeWriter interface {
	WriteEdges(ctx context.Context, edges []GraphEdge) error
}

// InteractionGraph buffers edges and flushes them to the writer when a batch
// fills up, on a timer, and on Stop. Enqueue never blocks; edges are dropped
// when the buffer is full.
type InteractionGraph struct {
	writer        EdgeWriter
	logger        *logrus.Logger
	edges         chan GraphEdge
	batchSize     int
	flushInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

func NewInteractionGraph(writer EdgeWriter, logger *logrus.Logger) *InteractionGraph {
	return newInteractionGraph(writer, logger, 100, 30*time.Second)
}

func newInteractionGraph(writer EdgeWriter, logger *logrus.Logger, batchSize int, flushInterval time.Duration) *InteractionGraph {
	g := &InteractionGraph{
		writer:        writer,
		logger:        logger,
		edges:         make(chan GraphEdge, batchSize*10),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopChan:      make(chan struct{}),
	}
	g.wg.Add(1)
	go g.batchWorker()
	return g
}

func (g *InteractionGraph) Enqueue(edge GraphEdge) {
	select {
	case g.edges <- edge:
	default:
		g.logger.WithField("user_id", edge.UserID).Warn("Interaction graph queue full, dropping edge")
	}
}

// Stop flushes pending edges and waits for the worker to exit.
func (g *InteractionGraph) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
	g.wg.Wait()
}

func (g *InteractionGraph) batchWorker() {
	defer g.wg.Done()

	var batch []GraphEdge
	ticker := time.NewTicker(g.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case edge := <-g.edges:
			batch = append(batch, edge)
			if len(batch) >= g.batchSize {
				g.flush(batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				g.flush(batch)
				batch = nil
			}

		case <-g.stopChan:
			// drain whatever is still buffered
			for {
				select {
				case edge := <-g.edges:
					batch = append(batch, edge)
				default:
					if len(batch) > 0 {
						g.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (g *InteractionGraph) flush(batch []GraphEdge) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := g.writer.WriteEdges(ctx, batch); err != nil {
		g.logger.WithError(err).WithField("batch_size", len(batch)).Error("Failed to write interaction graph batch")
		return
	}
	g.logger.WithField("batch_size", len(batch)).Debug("Wrote interaction graph batch")
}

// Neo4jEdgeWriter MERGEs edges into Neo4j, one UNWIND statement per edge type.
type Neo4jEdgeWriter struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jEdgeWriter(driver neo4j.DriverWithContext) *Neo4jEdgeWriter {
	return &Neo4jEdgeWriter{driver: driver}
}

func (w *Neo4jEdgeWriter) WriteEdges(ctx context.Context, edges []GraphEdge) error {
	byType := groupEdges(edges)

	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, edgeType := range []EdgeType{EdgeViewed, EdgeBooked, EdgeRated} {
			rows, ok := byType[edgeType]
			if !ok {
				continue
			}
			result, err := tx.Run(ctx, mergeEdgesCypher(edgeType), map[string]interface{}{"edges": rows})
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to merge interaction edges: %w", err)
	}
	return nil
}

// groupEdges turns edges into Cypher parameter rows keyed by edge type.
// Unknown types are skipped.
func groupEdges(edges []GraphEdge) map[EdgeType][]map[string]interface{} {
	byType := make(map[EdgeType][]map[string]interface{})
	for _, e := range edges {
		switch e.Type {
		case EdgeViewed, EdgeBooked, EdgeRated:
		default:
			continue
		}
		props := e.Properties
		if props == nil {
			props = map[string]interface{}{}
		}
		byType[e.Type] = append(byType[e.Type], map[string]interface{}{
			"user_id":    e.UserID.String(),
			"hotel_id":   e.HotelID.String(),
			"properties": props,
		})
	}
	return byType
}

func mergeEdgesCypher(edgeType EdgeType) string {
	return `
		UNWIND $edges AS edge
		MERGE (u:User {id: edge.user_id})
		MERGE (h:Hotel {id: edge.hotel_id})
		MERGE (u)-[r:` + string(edgeType) + `]->(h)
		SET r += edge.properties
		SET r.updated_at = datetime()`
}
