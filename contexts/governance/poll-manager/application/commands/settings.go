package commands

import (
	"context"
	"strings"

	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/domain/services"
	"pollgov/contexts/governance/poll-manager/ports"
)

// SetAuthorityContract binds the principal that receives creation fees and
// vote stakes. The binding can be made once.
func (e *Engine) SetAuthorityContract(ctx context.Context, caller string, target string) error {
	target = strings.TrimSpace(target)
	err := e.run(ctx, "set_authority_contract", caller, func(ctx context.Context, repo ports.Repository, height uint64) error {
		if target == "" || target == services.BurnAddress {
			return domainerrors.ErrInvalidAuthorityTarget
		}
		settings, err := repo.GetSettings(ctx)
		if err != nil {
			return err
		}
		if settings.AuthorityBound() {
			return domainerrors.ErrAuthorityAlreadyBound
		}
		settings.AuthorityTarget = target
		if err := repo.PutSettings(ctx, settings); err != nil {
			return err
		}
		return e.appendSettingsEvent(ctx, repo, EventAuthorityBound, height, map[string]any{
			"authority_target": target,
			"bound_by":         caller,
		})
	})
	if err != nil {
		return err
	}

	e.logger().Info("authority contract bound",
		"event", "poll_authority_bound",
		"module", moduleName,
		"layer", "application",
		"caller", caller,
		"authority_target", target,
	)
	return nil
}

// SetCreationFee overwrites the fee charged on poll creation. It requires a
// bound authority target.
func (e *Engine) SetCreationFee(ctx context.Context, caller string, fee uint64) error {
	err := e.run(ctx, "set_creation_fee", caller, func(ctx context.Context, repo ports.Repository, height uint64) error {
		settings, err := repo.GetSettings(ctx)
		if err != nil {
			return err
		}
		if !settings.AuthorityBound() {
			return domainerrors.ErrAuthorityNotVerified
		}
		settings.CreationFee = fee
		if err := repo.PutSettings(ctx, settings); err != nil {
			return err
		}
		return e.appendSettingsEvent(ctx, repo, EventCreationFeeSet, height, map[string]any{
			"creation_fee": fee,
			"set_by":       caller,
		})
	})
	if err != nil {
		return err
	}

	e.logger().Info("creation fee updated",
		"event", "poll_creation_fee_updated",
		"module", moduleName,
		"layer", "application",
		"caller", caller,
		"creation_fee", fee,
	)
	return nil
}
