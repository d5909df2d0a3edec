package client

import (
	"fmt"
	"net/url"
	"tourdesk/pkg/model"
)

type DirectoryClient struct {
	httpClient *HttpClient
}

func NewDirectoryClient(httpClient *HttpClient) *DirectoryClient {
	return &DirectoryClient{
		httpClient: httpClient,
	}
}

func (c *DirectoryClient) CreateResource(resource model.Resource) (*Response, error) {
	return c.httpClient.POST("/resources", resource)
}

func (c *DirectoryClient) ListResources() (*Response, error) {
	return c.httpClient.GET("/resources")
}

func (c *DirectoryClient) ResourceCalendar(resourceID, date string) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/resources/%s/calendar?date=%s", url.PathEscape(resourceID), url.QueryEscape(date)))
}

func (c *DirectoryClient) DeclareMaintenance(resourceID string, req model.MaintenanceRequest) (*Response, error) {
	return c.httpClient.POST(fmt.Sprintf("/resources/%s/maintenance", url.PathEscape(resourceID)), req)
}

func (c *DirectoryClient) CreateCrewMember(member model.CrewMember) (*Response, error) {
	return c.httpClient.POST("/crew", member)
}

func (c *DirectoryClient) ListCrew() (*Response, error) {
	return c.httpClient.GET("/crew")
}

func (c *DirectoryClient) CrewSchedule(crewID, date string) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/crew/%s/schedule?date=%s", url.PathEscape(crewID), url.QueryEscape(date)))
}

func (c *DirectoryClient) Utilization(date string) (*Response, error) {
	return c.httpClient.GET("/analytics/utilization?date=" + url.QueryEscape(date))
}

func (c *DirectoryClient) Notifications(limit int) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/notifications?limit=%d", limit))
}
