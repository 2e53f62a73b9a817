// README: Customer, provider and package records used by the booking engine.
package directory

import (
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

type Customer struct {
	ID        types.ID
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Address   string
	Location  *types.Point
}

type Provider struct {
	ID             types.ID
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	StoreName      string
	Specialization string
	Location       *types.Point
}

type Package struct {
	ID          types.ID
	ProviderID  types.ID
	Name        string
	Description string
	Price       types.Money
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

func (p *Provider) FullName() string {
	return p.FirstName + " " + p.LastName
}
