package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanderbeurden/plannerapp-sub000/internal/api"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/catalog"
)

func (h *handler) listClients(c *gin.Context) {
	out, err := h.catalog.ListClients(c.Request.Context(), businessID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := api.ClientsResponse{Clients: make([]api.Client, 0, len(out))}
	for _, cl := range out {
		resp.Clients = append(resp.Clients, toAPIClient(cl))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) createClient(c *gin.Context) {
	var req api.CreateClientRequest
	if !h.bind(c, &req) {
		return
	}
	cl, err := h.catalog.CreateClient(c.Request.Context(), businessID(c), catalog.ClientInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.ClientResponse{Client: toAPIClient(cl)})
}

func (h *handler) getClient(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	cl, err := h.catalog.GetClient(c.Request.Context(), businessID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ClientResponse{Client: toAPIClient(cl)})
}

func (h *handler) deleteClient(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteClient(c.Request.Context(), businessID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listServices(c *gin.Context) {
	out, err := h.catalog.ListServices(c.Request.Context(), businessID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := api.ServicesResponse{Services: make([]api.Service, 0, len(out))}
	for _, s := range out {
		resp.Services = append(resp.Services, toAPIService(s))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) createService(c *gin.Context) {
	var req api.CreateServiceRequest
	if !h.bind(c, &req) {
		return
	}
	s, err := h.catalog.CreateService(c.Request.Context(), businessID(c), catalog.ServiceInput{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.ServiceResponse{Service: toAPIService(s)})
}

func (h *handler) getService(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	s, err := h.catalog.GetService(c.Request.Context(), businessID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ServiceResponse{Service: toAPIService(s)})
}

func (h *handler) deleteService(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteService(c.Request.Context(), businessID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
