package wfaclient

// Academy is an academy record as returned by the backend. Fields the
// backend omits stay at their zero value.
type Academy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	HasPrograms bool   `json:"hasPrograms,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// AcademyInput is the write shape for admin academy CRUD.
type AcademyInput struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
}

// Program is a program record. IsRegistered is decorated by the
// backend only when the request carried a valid client bearer token.
type Program struct {
	ID           string  `json:"id"`
	AcademyID    string  `json:"academyId,omitempty"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug,omitempty"`
	Type         string  `json:"type"`
	City         string  `json:"city,omitempty"`
	AgeGroupCode string  `json:"ageGroupCode,omitempty"`
	Season       string  `json:"season,omitempty"`
	Price        float64 `json:"price,omitempty"`
	StartDate    string  `json:"startDate,omitempty"`
	EndDate      string  `json:"endDate,omitempty"`
	Description  string  `json:"description,omitempty"`
	IsRegistered bool    `json:"isRegistered,omitempty"`
}

// ProgramInput is the write shape for admin program CRUD.
type ProgramInput struct {
	AcademyID    string  `json:"academyId,omitempty"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	AgeGroupCode string  `json:"ageGroupCode,omitempty"`
	Season       string  `json:"season,omitempty"`
	Price        float64 `json:"price,omitempty"`
	StartDate    string  `json:"startDate,omitempty"`
	EndDate      string  `json:"endDate,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// AcademyPage is one page of a filtered academy listing.
type AcademyPage struct {
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Total    int       `json:"total"`
	Data     []Academy `json:"data"`
}

// ProgramPage is one page of a filtered program listing.
type ProgramPage struct {
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Total    int       `json:"total"`
	Data     []Program `json:"data"`
}

// AcademyFilterOptions populates the academy listing's selection
// controls. Refetched on each page mount; never cached across mounts.
type AcademyFilterOptions struct {
	Cities      []string `json:"cities"`
	Countries   []string `json:"countries"`
	Status      []string `json:"status"`
	HasPrograms []string `json:"hasPrograms"`
}

// ProgramFilterOptions populates the program listing's selection
// controls.
type ProgramFilterOptions struct {
	Locations []string `json:"locations"`
	AgeGroups []string `json:"ageGroups"`
	Types     []string `json:"types"`
}

// SignupInput is the signup request body. Phone is optional and sent
// as null when empty.
type SignupInput struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone"`
}

// ProfileUpdate is the PUT /me request body. Nil fields are omitted
// and left unchanged by the backend.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// SupportRequest is a support-ticket record with its reply thread.
type SupportRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Message   string         `json:"message"`
	Status    string         `json:"status,omitempty"`
	Replies   []SupportReply `json:"replies,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
}

// SupportReply is one admin reply on a support request.
type SupportReply struct {
	Reply     string `json:"reply"`
	CreatedAt string `json:"createdAt,omitempty"`
}
