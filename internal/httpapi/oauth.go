package httpapi

// fixedClient is the admin API's single oauth2 client registration. It
// satisfies go-oauth2/oauth2/v4's oauth2.ClientInfo interface.
type fixedClient struct {
	id     string
	secret string
}

func (c *fixedClient) GetID() string     { return c.id }
func (c *fixedClient) GetSecret() string { return c.secret }
func (c *fixedClient) GetDomain() string { return "" }
func (c *fixedClient) GetUserID() string { return "admin" }
func (c *fixedClient) IsPublic() bool    { return false }
