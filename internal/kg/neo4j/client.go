package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/healthnet/backend/pkg/circuitbreaker"
	"github.com/healthnet/backend/pkg/logger"
	"github.com/healthnet/backend/pkg/retry"
)

type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

// DoctorMatch is a doctor surfaced by a specialty graph traversal, together
// with the hospital employing them when the graph knows it.
type DoctorMatch struct {
	DoctorID     int64
	DoctorName   string
	Specialty    string
	HospitalID   int64
	HospitalName string
}

func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx := context.Background()
	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Neo4j client initialized", zap.String("uri", uri))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)
			return operation(session)
		})
	})
}

func (c *Client) MergeHospital(ctx context.Context, id int, name, location string, bedsAvailable int, latitude, longitude float64) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
		MERGE (h:Hospital {id: $id})
		SET h.name = $name,
		    h.location = $location,
		    h.beds_available = $beds_available,
		    h.latitude = $latitude,
		    h.longitude = $longitude,
		    h.updated_at = timestamp()
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":             id,
		"name":           name,
		"location":       location,
		"beds_available": bedsAvailable,
		"latitude":       latitude,
		"longitude":      longitude,
	})

	if err != nil {
		return fmt.Errorf("failed to merge hospital: %w", err)
	}

	logger.Debug("Hospital merged into KG", zap.Int("hospital_id", id), zap.String("name", name))

	return nil
}

func (c *Client) MergeDoctor(ctx context.Context, id int, name string) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
		MERGE (d:Doctor {id: $id})
		SET d.name = $name,
		    d.updated_at = timestamp()
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":   id,
		"name": name,
	})

	if err != nil {
		return fmt.Errorf("failed to merge doctor: %w", err)
	}

	return nil
}

func (c *Client) MergeSpecialty(ctx context.Context, name string) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `MERGE (s:Specialty {name: $name})`

	_, err := session.Run(ctx, query, map[string]interface{}{"name": name})
	if err != nil {
		return fmt.Errorf("failed to merge specialty: %w", err)
	}

	return nil
}

// LinkDoctorToSpecialty creates (d)-[:SPECIALIZES_IN]->(s).
func (c *Client) LinkDoctorToSpecialty(ctx context.Context, doctorID int, specialty string) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
		MATCH (d:Doctor {id: $doctor_id})
		MATCH (s:Specialty {name: $specialty})
		MERGE (d)-[:SPECIALIZES_IN]->(s)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"doctor_id": doctorID,
		"specialty": specialty,
	})
	if err != nil {
		return fmt.Errorf("failed to link doctor to specialty: %w", err)
	}

	return nil
}

// LinkHospitalToSpecialty creates (h)-[:OFFERS]->(s).
func (c *Client) LinkHospitalToSpecialty(ctx context.Context, hospitalID int, specialty string) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
		MATCH (h:Hospital {id: $hospital_id})
		MATCH (s:Specialty {name: $specialty})
		MERGE (h)-[:OFFERS]->(s)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"hospital_id": hospitalID,
		"specialty":   specialty,
	})
	if err != nil {
		return fmt.Errorf("failed to link hospital to specialty: %w", err)
	}

	return nil
}

// LinkHospitalToDoctor creates (h)-[:EMPLOYS]->(d).
func (c *Client) LinkHospitalToDoctor(ctx context.Context, hospitalID, doctorID int) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
		MATCH (h:Hospital {id: $hospital_id})
		MATCH (d:Doctor {id: $doctor_id})
		MERGE (h)-[:EMPLOYS]->(d)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"hospital_id": hospitalID,
		"doctor_id":   doctorID,
	})
	if err != nil {
		return fmt.Errorf("failed to link hospital to doctor: %w", err)
	}

	return nil
}

// FindDoctorsBySpecialty traverses SPECIALIZES_IN edges whose specialty name
// contains the given fragment, case-insensitively.
func (c *Client) FindDoctorsBySpecialty(ctx context.Context, specialty string, limit int) ([]DoctorMatch, error) {
	var matches []DoctorMatch

	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		query := `
			MATCH (d:Doctor)-[:SPECIALIZES_IN]->(s:Specialty)
			WHERE toLower(s.name) CONTAINS toLower($specialty)
			OPTIONAL MATCH (h:Hospital)-[:EMPLOYS]->(d)
			RETURN d.id AS doctor_id, d.name AS doctor_name, s.name AS specialty,
			       h.id AS hospital_id, h.name AS hospital_name
			ORDER BY d.name
			LIMIT $limit
		`

		result, err := session.Run(ctx, query, map[string]interface{}{
			"specialty": specialty,
			"limit":     limit,
		})
		if err != nil {
			return fmt.Errorf("failed to find doctors by specialty: %w", err)
		}

		for result.Next(ctx) {
			record := result.Record()

			doctorID, _ := record.Get("doctor_id")
			doctorName, _ := record.Get("doctor_name")
			specName, _ := record.Get("specialty")
			hospitalID, _ := record.Get("hospital_id")
			hospitalName, _ := record.Get("hospital_name")

			match := DoctorMatch{
				DoctorID:   doctorID.(int64),
				DoctorName: doctorName.(string),
				Specialty:  specName.(string),
			}
			if hospitalID != nil {
				match.HospitalID = hospitalID.(int64)
			}
			if hospitalName != nil {
				match.HospitalName = hospitalName.(string)
			}

			matches = append(matches, match)
		}

		if err = result.Err(); err != nil {
			return fmt.Errorf("error iterating results: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("KG specialty lookup completed",
		zap.String("specialty", specialty),
		zap.Int("results_found", len(matches)),
	)

	return matches, nil
}
