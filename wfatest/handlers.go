package wfatest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	wfaclient "github.com/wfa-platform/wfaclient"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	id, ok := s.byEmail[body.Email]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.Unlock()

	if rec == nil || !rec.hash.verify(body.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": s.mintToken(rec.id, rec.role, tokenTTL),
		"user":  rec.public(),
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email     string  `json:"email"`
		Password  string  `json:"password"`
		FirstName string  `json:"firstName"`
		LastName  string  `json:"lastName"`
		Phone     *string `json:"phone"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	fields := map[string]string{}
	if !strings.Contains(body.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(body.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if body.FirstName == "" {
		fields["firstName"] = "is required"
	}
	if body.LastName == "" {
		fields["lastName"] = "is required"
	}
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "validation failed", fields)
		return
	}

	s.mu.Lock()
	if _, exists := s.byEmail[body.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "validation failed", map[string]string{"email": "is already registered"})
		return
	}
	rec := &userRecord{
		id:        uuid.NewString(),
		email:     body.Email,
		role:      "CLIENT",
		firstName: body.FirstName,
		lastName:  body.LastName,
		hash:      hashPassword(body.Password),
	}
	if body.Phone != nil {
		rec.phone = *body.Phone
	}
	s.users[rec.id] = rec
	s.byEmail[rec.email] = rec.id
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created, you can log in now"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	rec, _ := s.authenticate(r)
	if rec == nil {
		writeError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": rec.public()})
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	rec, _ := s.authenticate(r)
	if rec == nil {
		writeError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	var body struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Phone     *string `json:"phone"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	if body.FirstName != nil {
		rec.firstName = *body.FirstName
	}
	if body.LastName != nil {
		rec.lastName = *body.LastName
	}
	if body.Phone != nil {
		rec.phone = *body.Phone
	}
	user := rec.public()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *userRecord {
	rec, missing := s.authenticate(r)
	if rec == nil {
		if missing {
			writeError(w, http.StatusUnauthorized, "authentication required", nil)
		} else {
			writeError(w, http.StatusUnauthorized, "invalid token", nil)
		}
		return nil
	}
	if rec.role != "ADMIN" {
		writeError(w, http.StatusForbidden, "admin access required", nil)
		return nil
	}
	return rec
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if limit < 1 {
		limit = 12
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *Server) handleListAcademies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city, country, status := q.Get("city"), q.Get("country"), q.Get("status")
	hasPrograms, search := q.Get("hasPrograms"), strings.ToLower(q.Get("q"))

	s.mu.Lock()
	withPrograms := make(map[string]bool)
	for _, p := range s.programs {
		withPrograms[p.AcademyID] = true
	}
	var matched []wfaclient.Academy
	for _, a := range s.academies {
		if city != "" && a.City != city {
			continue
		}
		if country != "" && a.CountryCode != country {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		if hasPrograms != "" && strconv.FormatBool(withPrograms[a.ID]) != hasPrograms {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) {
			continue
		}
		a.HasPrograms = withPrograms[a.ID]
		matched = append(matched, a)
	}
	s.mu.Unlock()

	desc := q.Get("sortDir") == "desc"
	sort.Slice(matched, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		return matched[i].Name < matched[j].Name
	})

	page, limit := pagination(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"page":     page,
		"pageSize": limit,
		"total":    len(matched),
		"data":     paginate(matched, page, limit),
	})
}

func (s *Server) handleAcademyFilters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cities := make(map[string]bool)
	countries := make(map[string]bool)
	statuses := make(map[string]bool)
	for _, a := range s.academies {
		cities[a.City] = true
		countries[a.CountryCode] = true
		statuses[a.Status] = true
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wfaclient.AcademyFilterOptions{
		Cities:      sortedKeys(cities),
		Countries:   sortedKeys(countries),
		Status:      sortedKeys(statuses),
		HasPrograms: []string{"true", "false"},
	})
}

func (s *Server) handleFeaturedAcademies(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 3
	}
	s.mu.Lock()
	all := make([]wfaclient.Academy, 0, len(s.academies))
	for _, a := range s.academies {
		all = append(all, a)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if len(all) > limit {
		all = all[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"academies": all})
}

func (s *Server) handleGetAcademy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a, ok := s.academies[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "academy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCreateAcademy(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	var input wfaclient.AcademyInput
	if !decodeBody(w, r, &input) {
		return
	}
	if input.Name == "" {
		writeError(w, http.StatusBadRequest, "validation failed", map[string]string{"name": "is required"})
		return
	}
	a := wfaclient.Academy{
		ID:          uuid.NewString(),
		Name:        input.Name,
		City:        input.City,
		CountryCode: input.CountryCode,
		Status:      input.Status,
		Description: input.Description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if a.Status == "" {
		a.Status = "active"
	}
	s.mu.Lock()
	s.academies[a.ID] = a
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateAcademy(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	var input wfaclient.AcademyInput
	if !decodeBody(w, r, &input) {
		return
	}
	s.mu.Lock()
	a, ok := s.academies[r.PathValue("id")]
	if ok {
		if input.Name != "" {
			a.Name = input.Name
		}
		if input.City != "" {
			a.City = input.City
		}
		if input.CountryCode != "" {
			a.CountryCode = input.CountryCode
		}
		if input.Status != "" {
			a.Status = input.Status
		}
		if input.Description != "" {
			a.Description = input.Description
		}
		a.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		s.academies[a.ID] = a
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "academy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAcademy(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	s.mu.Lock()
	_, ok := s.academies[r.PathValue("id")]
	delete(s.academies, r.PathValue("id"))
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "academy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// decorate marks programs the requester is enrolled in. Only a valid
// client token triggers decoration.
func (s *Server) decorate(r *http.Request, programs []wfaclient.Program) []wfaclient.Program {
	rec, _ := s.authenticate(r)
	if rec == nil || rec.role != "CLIENT" {
		return programs
	}
	s.mu.Lock()
	mine := s.registrations[rec.id]
	s.mu.Unlock()
	for i := range programs {
		programs[i].IsRegistered = mine[programs[i].ID]
	}
	return programs
}

func (s *Server) handleSearchPrograms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city, ageGroup, typ := q.Get("city"), q.Get("ageGroup"), q.Get("type")

	s.mu.Lock()
	var matched []wfaclient.Program
	for _, p := range s.programs {
		if city != "" && p.City != city {
			continue
		}
		if ageGroup != "" && p.AgeGroupCode != ageGroup {
			continue
		}
		if typ != "" && p.Type != typ {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	asc := q.Get("sortDir") == "asc"
	sort.Slice(matched, func(i, j int) bool {
		if asc {
			return matched[i].StartDate < matched[j].StartDate
		}
		return matched[i].StartDate > matched[j].StartDate
	})

	page, limit := pagination(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"page":     page,
		"pageSize": limit,
		"total":    len(matched),
		"data":     s.decorate(r, paginate(matched, page, limit)),
	})
}

func (s *Server) handleProgramFilters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	locations := make(map[string]bool)
	ageGroups := make(map[string]bool)
	types := make(map[string]bool)
	for _, p := range s.programs {
		locations[p.City] = true
		ageGroups[p.AgeGroupCode] = true
		types[p.Type] = true
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wfaclient.ProgramFilterOptions{
		Locations: sortedKeys(locations),
		AgeGroups: sortedKeys(ageGroups),
		Types:     sortedKeys(types),
	})
}

func (s *Server) handleRecentPrograms(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 3
	}
	s.mu.Lock()
	all := make([]wfaclient.Program, 0, len(s.programs))
	for _, p := range s.programs {
		all = append(all, p)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate > all[j].StartDate })
	if len(all) > limit {
		all = all[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": s.decorate(r, all)})
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.programs[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "program not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, s.decorate(r, []wfaclient.Program{p})[0])
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	rec, _ := s.authenticate(r)
	if rec == nil {
		writeError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	if rec.role != "CLIENT" {
		writeError(w, http.StatusForbidden, "only clients can register", nil)
		return
	}

	s.mu.Lock()
	p, ok := s.programs[r.PathValue("id")]
	if ok {
		if s.registrations[rec.id] == nil {
			s.registrations[rec.id] = make(map[string]bool)
		}
		s.registrations[rec.id][p.ID] = true
		p.IsRegistered = true
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "program not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"program": p})
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	var input wfaclient.ProgramInput
	if !decodeBody(w, r, &input) {
		return
	}
	if input.Title == "" {
		writeError(w, http.StatusBadRequest, "validation failed", map[string]string{"title": "is required"})
		return
	}
	p := wfaclient.Program{
		ID:           uuid.NewString(),
		AcademyID:    input.AcademyID,
		Title:        input.Title,
		Type:         input.Type,
		AgeGroupCode: input.AgeGroupCode,
		Season:       input.Season,
		Price:        input.Price,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Description:  input.Description,
	}
	s.mu.Lock()
	if a, ok := s.academies[p.AcademyID]; ok {
		p.City = a.City
	}
	s.programs[p.ID] = p
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	var input wfaclient.ProgramInput
	if !decodeBody(w, r, &input) {
		return
	}
	s.mu.Lock()
	p, ok := s.programs[r.PathValue("id")]
	if ok {
		if input.Title != "" {
			p.Title = input.Title
		}
		if input.Type != "" {
			p.Type = input.Type
		}
		if input.AgeGroupCode != "" {
			p.AgeGroupCode = input.AgeGroupCode
		}
		if input.Season != "" {
			p.Season = input.Season
		}
		if input.Price != 0 {
			p.Price = input.Price
		}
		if input.StartDate != "" {
			p.StartDate = input.StartDate
		}
		if input.EndDate != "" {
			p.EndDate = input.EndDate
		}
		if input.Description != "" {
			p.Description = input.Description
		}
		s.programs[p.ID] = p
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "program not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	s.mu.Lock()
	_, ok := s.programs[r.PathValue("id")]
	delete(s.programs, r.PathValue("id"))
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "program not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) handleCreateSupport(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	fields := map[string]string{}
	if input.Name == "" {
		fields["name"] = "is required"
	}
	if !strings.Contains(input.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if input.Message == "" {
		fields["message"] = "is required"
	}
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "validation failed", fields)
		return
	}

	ticket := wfaclient.SupportRequest{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Message:   input.Message,
		Status:    "open",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	rec, _ := s.authenticate(r)

	s.mu.Lock()
	s.support[ticket.ID] = ticket
	if rec != nil {
		s.supportOwner[ticket.ID] = rec.id
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"data": ticket})
}

func (s *Server) handleListSupport(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	s.mu.Lock()
	all := make([]wfaclient.SupportRequest, 0, len(s.support))
	for _, t := range s.support {
		all = append(all, t)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt > all[j].CreatedAt })
	writeJSON(w, http.StatusOK, map[string]any{"data": all})
}

func (s *Server) handleMySupport(w http.ResponseWriter, r *http.Request) {
	rec, _ := s.authenticate(r)
	if rec == nil {
		writeError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	s.mu.Lock()
	var mine []wfaclient.SupportRequest
	for id, owner := range s.supportOwner {
		if owner == rec.id {
			mine = append(mine, s.support[id])
		}
	}
	s.mu.Unlock()
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt > mine[j].CreatedAt })
	if mine == nil {
		mine = []wfaclient.SupportRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": mine})
}

func (s *Server) handleReplySupport(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	var input struct {
		Reply string `json:"reply"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	if input.Reply == "" {
		writeError(w, http.StatusBadRequest, "validation failed", map[string]string{"reply": "is required"})
		return
	}

	s.mu.Lock()
	t, ok := s.support[r.PathValue("id")]
	if ok {
		t.Replies = append(t.Replies, wfaclient.SupportReply{
			Reply:     input.Reply,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		})
		t.Status = "answered"
		s.support[t.ID] = t
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "support request not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": t})
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
