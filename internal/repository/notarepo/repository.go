package notarepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
)

// NotaRepository implementa a interface domain.NotaRepository sobre PostgreSQL.
type NotaRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewNotaRepository cria e retorna uma nova instância do Repositório de Notas.
func NewNotaRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *NotaRepository {
	return &NotaRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// MatriculaExists verifica se a matrícula (AlunoTurma) existe antes de um lançamento.
func (r *NotaRepository) MatriculaExists(ctx context.Context, idAlunoTurma int64) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM aluno_turma WHERE id = $1)`, idAlunoTurma).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao verificar matrícula no DB.", err)
		return false, apperror.NewDBError("Falha ao verificar matrícula", err)
	}
	return exists, nil
}

// Save insere um novo lançamento de nota e devolve a entidade com o id gerado.
func (r *NotaRepository) Save(ctx context.Context, nota domain.Nota) (domain.Nota, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO notas (id_aluno_turma, valor, descricao, dt_lancamento)
                       VALUES ($1, $2, $3, $4)
                       RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, insertSQL,
		nota.IDAlunoTurma, nota.Valor, nota.Descricao, nota.DtLancamento).Scan(&nota.ID)
	if err != nil {
		r.logger.Error("Falha ao inserir nota no DB.", err)
		return domain.Nota{}, apperror.NewDBError("Falha ao inserir nota", err)
	}

	r.logger.Info("Nota lançada com sucesso.", map[string]interface{}{"nota_id": nota.ID, "id_aluno_turma": nota.IDAlunoTurma})
	return nota, nil
}

// FindByID busca um lançamento de nota pelo id.
func (r *NotaRepository) FindByID(ctx context.Context, id int64) (domain.Nota, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, id_aluno_turma, valor, descricao, dt_lancamento FROM notas WHERE id = $1`

	var n domain.Nota
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(&n.ID, &n.IDAlunoTurma, &n.Valor, &n.Descricao, &n.DtLancamento)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Nota{}, apperror.NewNotFoundError(fmt.Sprintf("Nota com id %d não encontrada", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar nota no DB.", err)
		return domain.Nota{}, apperror.NewDBError("Falha ao buscar nota", err)
	}
	return n, nil
}

// FindByMatricula lista os lançamentos de uma matrícula, ordenados pelo
// momento do lançamento (e pelo id, para desempate estável).
func (r *NotaRepository) FindByMatricula(ctx context.Context, idAlunoTurma int64) ([]domain.NotaDTO, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, valor, descricao, dt_lancamento FROM notas
                   WHERE id_aluno_turma = $1
                   ORDER BY dt_lancamento, id`

	rows, err := r.DB.QueryContext(ctxTimeout, query, idAlunoTurma)
	if err != nil {
		r.logger.Error("Falha ao listar notas no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar notas", err)
	}
	defer rows.Close()

	notas := []domain.NotaDTO{}
	for rows.Next() {
		var dto domain.NotaDTO
		if err := rows.Scan(&dto.IDNota, &dto.Nota, &dto.Descricao, &dto.DtLancamento); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear nota", err)
		}
		notas = append(notas, dto)
	}
	return notas, rows.Err()
}

// Update sobrescreve valor e descrição de um lançamento. O dt_lancamento original é preservado.
func (r *NotaRepository) Update(ctx context.Context, nota domain.Nota) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE notas SET valor = $1, descricao = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, nota.Valor, nota.Descricao, nota.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar nota no DB.", err)
		return apperror.NewDBError("Falha ao atualizar nota", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Nota com id %d não encontrada", nota.ID))
	}
	return nil
}

// Delete remove um lançamento de nota pelo id.
func (r *NotaRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM notas WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar nota no DB.", err)
		return apperror.NewDBError("Falha ao deletar nota", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Nota com id %d não encontrada", id))
	}

	r.logger.Info("Nota deletada com sucesso.", map[string]interface{}{"nota_id": id})
	return nil
}
