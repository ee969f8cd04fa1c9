package repo

import (
	"atendo/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository handles user data access
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDAndTenant gets a user by ID scoped to a tenant
func (r *UserRepository) GetByIDAndTenant(id, tenantID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update updates a user
func (r *UserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// List lists users with pagination
func (r *UserRepository) List(tenantID *uuid.UUID, limit, offset int) ([]models.User, error) {
	var users []models.User
	query := r.db.Limit(limit).Offset(offset)

	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}

	err := query.Find(&users).Error
	return users, err
}

// ListAgents lists the tenant's active agents
func (r *UserRepository) ListAgents(tenantID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("tenant_id = ? AND role = ? AND is_active = true", tenantID, models.RoleAgent).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// TenantRepository handles tenant data access
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByID gets a tenant by ID
func (r *TenantRepository) GetByID(id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.Where("id = ?", id).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// Create creates a new tenant
func (r *TenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

// Update updates a tenant
func (r *TenantRepository) Update(tenant *models.Tenant) error {
	return r.db.Save(tenant).Error
}

// List lists tenants with pagination
func (r *TenantRepository) List(limit, offset int) (models.PaginationResult[models.Tenant], error) {
	var tenants []models.Tenant
	var total int64

	if err := r.db.Model(&models.Tenant{}).Count(&total).Error; err != nil {
		return models.PaginationResult[models.Tenant]{}, err
	}

	err := r.db.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&tenants).Error
	if err != nil {
		return models.PaginationResult[models.Tenant]{}, err
	}

	page := 1
	totalPages := 1
	if limit > 0 {
		page = (offset / limit) + 1
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return models.PaginationResult[models.Tenant]{
		Data:       tenants,
		Total:      total,
		Page:       page,
		PerPage:    limit,
		TotalPages: totalPages,
	}, nil
}

// ContactRepository handles contact data access
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// GetByIDAndTenant gets a contact by ID and tenant ID
func (r *ContactRepository) GetByIDAndTenant(id, tenantID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Create creates a new contact
func (r *ContactRepository) Create(contact *models.Contact) error {
	return r.db.Create(contact).Error
}

// ListByTenant lists contacts for a tenant with pagination
func (r *ContactRepository) ListByTenant(tenantID uuid.UUID, limit, offset int) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&contacts).Error
	return contacts, err
}
