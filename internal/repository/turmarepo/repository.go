package turmarepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/cache"
	"classhub/internal/pkg/logger"
)

// Chave de cache para o detalhe de turma.
const turmaCacheKey = "turma:%d"

// TurmaRepository implementa a interface domain.TurmaRepository sobre PostgreSQL,
// com cache-aside (Redis) na consulta de detalhe.
type TurmaRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	CacheTTL  time.Duration
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTurmaRepository cria e retorna uma nova instância do Repositório de Turmas.
func NewTurmaRepository(db *sql.DB, cacheClient cache.Client, cacheTTL, dbTimeout time.Duration, logger logger.Logger) *TurmaRepository {
	return &TurmaRepository{
		DB:        db,
		Cache:     cacheClient,
		CacheTTL:  cacheTTL,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere uma nova turma e devolve a entidade com o id gerado.
func (r *TurmaRepository) Save(ctx context.Context, turma domain.Turma) (domain.Turma, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	turma.CreatedAt = time.Now()
	turma.UpdatedAt = turma.CreatedAt

	const insertSQL = `INSERT INTO turmas (nome, id_professor, dt_inicio, dt_fim, created_at, updated_at)
                       VALUES ($1, $2, $3, $4, $5, $6)
                       RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, insertSQL,
		turma.Nome, turma.IDProfessor, turma.DtInicio, turma.DtFim, turma.CreatedAt, turma.UpdatedAt,
	).Scan(&turma.ID)

	if err != nil {
		r.logger.Error("Falha ao inserir turma no DB.", err)
		return domain.Turma{}, apperror.NewDBError("Falha ao inserir turma", err)
	}

	r.logger.Info("Turma salva com sucesso no repositório.", map[string]interface{}{"turma_id": turma.ID, "nome": turma.Nome})
	return turma, nil
}

// FindByID busca o detalhe de uma turma (com nome do professor e quantidade de
// alunos), utilizando a estratégia Cache-Aside.
func (r *TurmaRepository) FindByID(ctx context.Context, id int64) (domain.TurmaDTO, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(turmaCacheKey, id)
	var dto domain.TurmaDTO

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &dto) == nil {
			return dto, nil
		}
		// Se a desserialização falhar, segue para o DB
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler turma do cache, consultando o DB.", map[string]interface{}{"turma_id": id, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados
	const query = `
        SELECT t.id, t.nome, t.dt_inicio, t.dt_fim, t.id_professor, p.nome,
               (SELECT COUNT(*) FROM aluno_turma at WHERE at.id_turma = t.id)
        FROM turmas t
        JOIN usuarios p ON p.id = t.id_professor
        WHERE t.id = $1`

	err = r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&dto.IDTurma, &dto.Nome, &dto.DtInicio, &dto.DtFim, &dto.IDProfessor, &dto.NomeProfessor, &dto.QtdAlunos,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.TurmaDTO{}, apperror.NewNotFoundError(fmt.Sprintf("Turma com id %d não encontrada", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar turma no DB.", err)
		return domain.TurmaDTO{}, apperror.NewDBError("Falha ao buscar turma", err)
	}

	// 3. Popula o cache para futuras requisições
	if turmaJSON, marshalErr := json.Marshal(dto); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, turmaJSON, r.CacheTTL)
	}

	return dto, nil
}

// FindRaw busca a linha da turma sem os campos derivados. Usada pela edição e deleção.
func (r *TurmaRepository) FindRaw(ctx context.Context, id int64) (domain.Turma, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, nome, id_professor, dt_inicio, dt_fim, created_at, updated_at FROM turmas WHERE id = $1`

	var t domain.Turma
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&t.ID, &t.Nome, &t.IDProfessor, &t.DtInicio, &t.DtFim, &t.CreatedAt, &t.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Turma{}, apperror.NewNotFoundError(fmt.Sprintf("Turma com id %d não encontrada", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar turma no DB.", err)
		return domain.Turma{}, apperror.NewDBError("Falha ao buscar turma", err)
	}
	return t, nil
}

// FindAll busca turmas paginadas segundo o filtro, com os campos derivados,
// devolvendo também o total de registros antes da paginação.
func (r *TurmaRepository) FindAll(ctx context.Context, filtro domain.ListarTurmaFiltro) ([]domain.TurmaDTO, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where := ` WHERE 1=1`
	args := []interface{}{}

	if filtro.IDUsuario != nil {
		// Turmas onde o usuário é o professor responsável ou um aluno matriculado.
		args = append(args, *filtro.IDUsuario)
		n := len(args)
		where += fmt.Sprintf(` AND (t.id_professor = $%d
                 OR EXISTS (SELECT 1 FROM aluno_turma at WHERE at.id_turma = t.id AND at.id_aluno = $%d))`, n, n)
	}

	if filtro.Pesquisa != "" {
		args = append(args, filtro.Pesquisa+"%")
		where += fmt.Sprintf(` AND t.nome LIKE $%d`, len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM turmas t` + where
	if err := r.DB.QueryRowContext(ctxTimeout, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar turmas no DB.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar turmas", err)
	}

	direction := "ASC"
	if filtro.Ordenacao == domain.OrdenacaoDescendente {
		direction = "DESC"
	}

	args = append(args, filtro.QtRegistros, (filtro.NrPagina-1)*filtro.QtRegistros)
	query := fmt.Sprintf(`
        SELECT t.id, t.nome, t.dt_inicio, t.dt_fim, t.id_professor, p.nome,
               (SELECT COUNT(*) FROM aluno_turma at WHERE at.id_turma = t.id)
        FROM turmas t
        JOIN usuarios p ON p.id = t.id_professor%s
        ORDER BY t.nome %s LIMIT $%d OFFSET $%d`, where, direction, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar turmas no DB.", err)
		return nil, 0, apperror.NewDBError("Falha ao listar turmas", err)
	}
	defer rows.Close()

	turmas := []domain.TurmaDTO{}
	for rows.Next() {
		var dto domain.TurmaDTO
		if err := rows.Scan(&dto.IDTurma, &dto.Nome, &dto.DtInicio, &dto.DtFim, &dto.IDProfessor, &dto.NomeProfessor, &dto.QtdAlunos); err != nil {
			return nil, 0, apperror.NewDBError("Falha ao mapear turma", err)
		}
		turmas = append(turmas, dto)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewDBError("Falha ao percorrer turmas", err)
	}

	return turmas, total, nil
}

// Update sobrescreve nome, professor e data de fim de uma turma existente.
func (r *TurmaRepository) Update(ctx context.Context, turma domain.Turma) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE turmas SET nome = $1, id_professor = $2, dt_fim = $3, updated_at = $4 WHERE id = $5`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, turma.Nome, turma.IDProfessor, turma.DtFim, time.Now(), turma.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar turma no DB.", err)
		return apperror.NewDBError("Falha ao atualizar turma", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Turma com id %d não encontrada", turma.ID))
	}

	r.invalidate(ctxTimeout, turma.ID)
	r.logger.Info("Turma atualizada com sucesso.", map[string]interface{}{"turma_id": turma.ID})
	return nil
}

// Delete remove uma turma. A verificação de alunos vinculados é responsabilidade do serviço.
func (r *TurmaRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM turmas WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar turma no DB.", err)
		return apperror.NewDBError("Falha ao deletar turma", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Turma com id %d não encontrada", id))
	}

	r.invalidate(ctxTimeout, id)
	r.logger.Info("Turma deletada com sucesso.", map[string]interface{}{"turma_id": id})
	return nil
}

// CountAlunos conta as matrículas ativas de uma turma.
func (r *TurmaRepository) CountAlunos(ctx context.Context, idTurma int64) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var count int
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM aluno_turma WHERE id_turma = $1`, idTurma).Scan(&count)
	if err != nil {
		r.logger.Error("Falha ao contar alunos da turma no DB.", err)
		return 0, apperror.NewDBError("Falha ao contar alunos da turma", err)
	}
	return count, nil
}

// FindAlunoIDByRA resolve o id de um aluno a partir do seu RA.
func (r *TurmaRepository) FindAlunoIDByRA(ctx context.Context, ra string) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var id int64
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT id FROM usuarios WHERE ra = $1`, ra).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperror.NewNotFoundError(fmt.Sprintf("Aluno com RA '%s' não encontrado", ra))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar aluno por RA no DB.", err)
		return 0, apperror.NewDBError("Falha ao buscar aluno por RA", err)
	}
	return id, nil
}

// FindMatricula busca a matrícula de um aluno em uma turma.
func (r *TurmaRepository) FindMatricula(ctx context.Context, idAluno, idTurma int64) (domain.AlunoTurma, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, id_aluno, id_turma, dt_matricula FROM aluno_turma WHERE id_aluno = $1 AND id_turma = $2`

	var at domain.AlunoTurma
	err := r.DB.QueryRowContext(ctxTimeout, query, idAluno, idTurma).Scan(&at.ID, &at.IDAluno, &at.IDTurma, &at.DtMatricula)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.AlunoTurma{}, apperror.NewNotFoundError(fmt.Sprintf("Matrícula do aluno %d na turma %d não encontrada", idAluno, idTurma))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar matrícula no DB.", err)
		return domain.AlunoTurma{}, apperror.NewDBError("Falha ao buscar matrícula", err)
	}
	return at, nil
}

// SaveMatricula insere uma matrícula. O índice único (id_aluno, id_turma) do
// banco garante no máximo uma matrícula por aluno por turma mesmo sob concorrência.
func (r *TurmaRepository) SaveMatricula(ctx context.Context, matricula domain.AlunoTurma) (domain.AlunoTurma, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO aluno_turma (id_aluno, id_turma, dt_matricula)
                       VALUES ($1, $2, $3)
                       RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, insertSQL, matricula.IDAluno, matricula.IDTurma, matricula.DtMatricula).Scan(&matricula.ID)
	if err != nil {
		r.logger.Error("Falha ao inserir matrícula no DB.", err)
		return domain.AlunoTurma{}, apperror.NewDBError("Falha ao inserir matrícula", err)
	}

	r.invalidate(ctxTimeout, matricula.IDTurma)
	r.logger.Info("Matrícula criada com sucesso.", map[string]interface{}{"id_aluno": matricula.IDAluno, "id_turma": matricula.IDTurma})
	return matricula, nil
}

// DeleteMatricula remove uma matrícula pelo id.
func (r *TurmaRepository) DeleteMatricula(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var idTurma int64
	err := r.DB.QueryRowContext(ctxTimeout, `DELETE FROM aluno_turma WHERE id = $1 RETURNING id_turma`, id).Scan(&idTurma)

	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NewNotFoundError(fmt.Sprintf("Matrícula com id %d não encontrada", id))
	}
	if err != nil {
		r.logger.Error("Falha ao deletar matrícula no DB.", err)
		return apperror.NewDBError("Falha ao deletar matrícula", err)
	}

	r.invalidate(ctxTimeout, idTurma)
	return nil
}

// invalidate remove o detalhe da turma do cache após qualquer escrita que o afete.
func (r *TurmaRepository) invalidate(ctx context.Context, idTurma int64) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(turmaCacheKey, idTurma)); err != nil {
		r.logger.Warn("Falha ao invalidar cache de turma.", map[string]interface{}{"turma_id": idTurma, "error": err.Error()})
	}
}
