package scenario

import (
	"fmt"

	"github.com/qomet-project/qomet/internal/qometerr"
)

// Resolve builds the name->index maps and assigns stable numeric ids
// (= slice index) to every node and interface. It must run once, after a
// Loader has populated Nodes/Interfaces/Environments/Connections/Motions
// by name, and before any tick is processed. Calling it twice is a no-op.
func (s *Scenario) Resolve() error {
	if s.resolved {
		return nil
	}

	s.nameToNode = make(NameIndex, len(s.Nodes))
	for i := range s.Nodes {
		s.Nodes[i].ID = NodeID(i)
		if _, dup := s.nameToNode[s.Nodes[i].Name]; dup {
			return qometerr.New(qometerr.KindInput, s.Nodes[i].Name,
				fmt.Errorf("%w: duplicate node name", qometerr.ErrMalformedInput))
		}
		s.nameToNode[s.Nodes[i].Name] = i
	}

	s.nameToIface = make(NameIndex, len(s.Interfaces))
	for i := range s.Interfaces {
		s.Interfaces[i].ID = IfaceID(i)
		key := s.Interfaces[i].Name
		if _, dup := s.nameToIface[key]; dup {
			return qometerr.New(qometerr.KindInput, key,
				fmt.Errorf("%w: duplicate interface name", qometerr.ErrMalformedInput))
		}
		s.nameToIface[key] = i
	}

	s.nameToEnv = make(NameIndex, len(s.Environments))
	for i := range s.Environments {
		s.Environments[i].ID = EnvID(i)
		s.nameToEnv[s.Environments[i].Name] = i
	}

	for i := range s.Connections {
		s.Connections[i].ID = ConnID(i)
	}

	for i := range s.Objects {
		s.Objects[i].ID = ObjectID(i)
		if envIdx, ok := s.nameToEnv[s.Objects[i].EnvName]; ok {
			s.Objects[i].EnvID = EnvID(envIdx)
		}
	}

	s.resolved = true
	return nil
}

// NodeByName looks up a node index by name, for use by a Loader before
// Resolve has run, or by tests.
func (s *Scenario) NodeByName(name string) (NodeID, bool) {
	i, ok := s.nameToNode[name]
	return NodeID(i), ok
}

// IfaceByName looks up an interface index by name.
func (s *Scenario) IfaceByName(name string) (IfaceID, bool) {
	i, ok := s.nameToIface[name]
	return IfaceID(i), ok
}

// EnvByName looks up an environment index by name.
func (s *Scenario) EnvByName(name string) (EnvID, bool) {
	i, ok := s.nameToEnv[name]
	return EnvID(i), ok
}

// Node/Iface/Env/Conn return a pointer to the entity for a resolved id.
// Callers must only use these after Resolve has run.

func (s *Scenario) Node(id NodeID) *Node            { return &s.Nodes[id] }
func (s *Scenario) Iface(id IfaceID) *Interface      { return &s.Interfaces[id] }
func (s *Scenario) Env(id EnvID) *Environment        { return &s.Environments[id] }
func (s *Scenario) Conn(id ConnID) *Connection       { return &s.Connections[id] }
func (s *Scenario) Object(id ObjectID) *Object       { return &s.Objects[id] }

// NodeInterfaces returns the resolved Interface pointers for a node, in
// the node's declared order.
func (s *Scenario) NodeInterfaces(n NodeID) []*Interface {
	node := s.Node(n)
	out := make([]*Interface, len(node.Interfaces))
	for i, id := range node.Interfaces {
		out[i] = s.Iface(id)
	}
	return out
}
