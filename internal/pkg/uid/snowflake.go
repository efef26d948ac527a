package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates time-ordered 63-bit ids.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator bound to nodeID (0..1023).
//
// Every process writing to the same store must use a distinct node id.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
