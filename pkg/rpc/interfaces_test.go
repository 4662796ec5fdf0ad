package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClients_Endpoints(t *testing.T) {
	clients := NewClients(Opts{},
		[]string{"http://node-a:8080/", "http://node-b:8080", "http://node-a:8080"},
		[]string{"http://trees:3030"},
		[]string{"http://vitals:3030/"},
	)

	assert.Equal(t, []string{"http://node-a:8080", "http://node-b:8080"}, clients.Node.Endpoints())
	assert.Equal(t, []string{"http://trees:3030"}, clients.PermissionTree.Endpoints())
	assert.Equal(t, []string{"http://vitals:3030"}, clients.Vitals.Endpoints())
}

func TestEndpoints_ReturnsCopy(t *testing.T) {
	c := NewNodeClient(Opts{Endpoints: []string{"http://node:8080"}})

	got := c.Endpoints()
	got[0] = "http://changed"

	assert.Equal(t, []string{"http://node:8080"}, c.Endpoints())
}
