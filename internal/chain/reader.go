package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"climatefund/internal/domain"
)

// GetProject reads the full projects(uint256) record. Unknown ids come back
// as a zero record; callers check Exists.
func (c *Client) GetProject(ctx context.Context, contract common.Address, id *big.Int) (domain.Project, error) {
	out, err := c.call(ctx, contract, "projects", id)
	if err != nil {
		return domain.Project{}, err
	}
	return domain.FormatProjectData(out)
}

// GetProjectProgress reads the public donation progress of a project.
func (c *Client) GetProjectProgress(ctx context.Context, contract common.Address, id *big.Int) (domain.ProjectProgress, error) {
	out, err := c.call(ctx, contract, "getProjectProgress", id)
	if err != nil {
		return domain.ProjectProgress{}, err
	}
	return domain.ProgressFromValues(out)
}

// GetPlatformStats reads the platform-wide aggregate.
func (c *Client) GetPlatformStats(ctx context.Context, contract common.Address) (domain.PlatformStats, error) {
	out, err := c.call(ctx, contract, "getPlatformStats")
	if err != nil {
		return domain.PlatformStats{}, err
	}
	return domain.StatsFromValues(out)
}

// GetActiveProjects lists the ids of projects currently accepting donations.
func (c *Client) GetActiveProjects(ctx context.Context, contract common.Address) ([]*big.Int, error) {
	return c.callIDs(ctx, contract, "getActiveProjects")
}

// GetAllProjects lists every project id ever created.
func (c *Client) GetAllProjects(ctx context.Context, contract common.Address) ([]*big.Int, error) {
	return c.callIDs(ctx, contract, "getAllProjects")
}

// GetUserCreatedProjects lists the ids of projects whose beneficiary is user.
func (c *Client) GetUserCreatedProjects(ctx context.Context, contract, user common.Address) ([]*big.Int, error) {
	return c.callIDs(ctx, contract, "getUserCreatedProjects", user)
}

// GetUserDonatedProjects lists the ids of projects user has donated to.
func (c *Client) GetUserDonatedProjects(ctx context.Context, contract, user common.Address) ([]*big.Int, error) {
	return c.callIDs(ctx, contract, "getUserDonatedProjects", user)
}

// GetUserParticipation combines the created and donated project lists.
func (c *Client) GetUserParticipation(ctx context.Context, contract, user common.Address) (domain.UserParticipation, error) {
	created, err := c.GetUserCreatedProjects(ctx, contract, user)
	if err != nil {
		return domain.UserParticipation{}, err
	}
	donated, err := c.GetUserDonatedProjects(ctx, contract, user)
	if err != nil {
		return domain.UserParticipation{}, err
	}
	return domain.UserParticipation{CreatedProjects: created, DonatedProjects: donated}, nil
}

// GetActiveProjectsCount reads the number of active projects.
func (c *Client) GetActiveProjectsCount(ctx context.Context, contract common.Address) (*big.Int, error) {
	return c.callUint(ctx, contract, "getActiveProjectsCount")
}

// ProjectCounter reads the id of the most recently created project.
func (c *Client) ProjectCounter(ctx context.Context, contract common.Address) (*big.Int, error) {
	return c.callUint(ctx, contract, "projectCounter")
}

// GetUserDonationAmount reads the public amount user donated to a project.
func (c *Client) GetUserDonationAmount(ctx context.Context, contract common.Address, id *big.Int, user common.Address) (*big.Int, error) {
	return c.callUint(ctx, contract, "getUserDonationAmount", id, user)
}

// HasUserDonated reports whether user has donated to a project.
func (c *Client) HasUserDonated(ctx context.Context, contract common.Address, id *big.Int, user common.Address) (bool, error) {
	out, err := c.call(ctx, contract, "hasUserDonated", id, user)
	if err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("chain: hasUserDonated: unexpected %d outputs", len(out))
	}
	donated, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("chain: hasUserDonated: unexpected type %T", out[0])
	}
	return donated, nil
}

// GetProjectDonors lists the donor addresses of a project.
func (c *Client) GetProjectDonors(ctx context.Context, contract common.Address, id *big.Int) ([]common.Address, error) {
	out, err := c.call(ctx, contract, "getProjectDonors", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("chain: getProjectDonors: unexpected %d outputs", len(out))
	}
	donors, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("chain: getProjectDonors: unexpected type %T", out[0])
	}
	return donors, nil
}

// ListProjects resolves each id into its record, skipping ids the contract
// reports as nonexistent. With relationTo set, the result is annotated with
// whether that wallet created or donated to each project.
func (c *Client) ListProjects(ctx context.Context, contract common.Address, ids []*big.Int, relationTo *common.Address) ([]domain.ProjectWithRelation, error) {
	var participation domain.UserParticipation
	if relationTo != nil {
		var err error
		participation, err = c.GetUserParticipation(ctx, contract, *relationTo)
		if err != nil {
			return nil, err
		}
	}
	out := make([]domain.ProjectWithRelation, 0, len(ids))
	for _, id := range ids {
		p, err := c.GetProject(ctx, contract, id)
		if err != nil {
			return nil, err
		}
		if !p.Exists() {
			continue
		}
		out = append(out, domain.ProjectWithRelation{
			Project:   p,
			IsCreator: containsID(participation.CreatedProjects, id),
			IsDonor:   containsID(participation.DonatedProjects, id),
		})
	}
	return out, nil
}

func (c *Client) callIDs(ctx context.Context, contract common.Address, method string, args ...any) ([]*big.Int, error) {
	out, err := c.call(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("chain: %s: unexpected %d outputs", method, len(out))
	}
	ids, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: %s: unexpected type %T", method, out[0])
	}
	return ids, nil
}

func (c *Client) callUint(ctx context.Context, contract common.Address, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("chain: %s: unexpected %d outputs", method, len(out))
	}
	return domain.ToBigInt(out[0])
}

func containsID(ids []*big.Int, id *big.Int) bool {
	for _, v := range ids {
		if v != nil && v.Cmp(id) == 0 {
			return true
		}
	}
	return false
}
